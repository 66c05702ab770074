package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ticket-rag/backend/internal/errs"
)

func embeddingSchemaQueries(dimension int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS ticket_embeddings (
			ticket_id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`, dimension),
		`CREATE INDEX IF NOT EXISTS ticket_embeddings_embedding_idx ON ticket_embeddings USING hnsw (embedding vector_cosine_ops)`,
	}
}

// EnsureEmbeddingSchema - pgvector extension 과 ticket_embeddings 테이블 생성 (idempotent)
// 이미 존재하는 테이블의 차원이 설정값과 다르면 ErrDimensionMismatch.
func (db *Postgres) EnsureEmbeddingSchema(ctx context.Context) error {
	if db.Dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", errs.ErrDimensionMismatch, db.Dimension)
	}
	for _, query := range embeddingSchemaQueries(db.Dimension) {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("%w: migrate: %v", errs.ErrStoreUnavailable, err)
		}
	}

	stored, err := db.storedDimension(ctx)
	if err != nil {
		return err
	}
	if stored > 0 && stored != db.Dimension {
		return fmt.Errorf("%w: ticket_embeddings.embedding is vector(%d), configured %d", errs.ErrDimensionMismatch, stored, db.Dimension)
	}
	return nil
}

// pgvector 는 차원을 atttypmod 에 저장
func (db *Postgres) storedDimension(ctx context.Context) (int, error) {
	var typmod int
	err := db.Pool.QueryRow(ctx, `
		SELECT a.atttypmod
		FROM pg_attribute a
		WHERE a.attrelid = 'ticket_embeddings'::regclass
		AND a.attname = 'embedding'
	`).Scan(&typmod)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read embedding dimension: %v", errs.ErrStoreUnavailable, err)
	}
	return typmod, nil
}
