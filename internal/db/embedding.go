package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/ticket-rag/backend/internal/errs"
	"github.com/ticket-rag/backend/internal/model"
)

// Postgres - pgvector 기반 ticket_embeddings 스토어
// Dimension 은 테이블 생성 시점에 고정되며 모든 upsert/nearest 호출에서 검사합니다.
type Postgres struct {
	Pool      *pgxpool.Pool
	Dimension int
}

func NewPostgres(pool *pgxpool.Pool, dimension int) *Postgres {
	return &Postgres{Pool: pool, Dimension: dimension}
}

func embeddingUpsertQuery() string {
	return `
		INSERT INTO ticket_embeddings (ticket_id, embedding, metadata, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (ticket_id) DO UPDATE
		SET embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
	`
}

// zero-norm 벡터는 pgvector 에서 NaN 이 나오므로 MemoryStore 와 같이 1 로 맞춘다
func embeddingNearestQuery() string {
	return `
		SELECT ticket_id, metadata, COALESCE(NULLIF(embedding <=> $1, 'NaN'::float8), 1) AS distance
		FROM ticket_embeddings
		ORDER BY distance ASC, ticket_id ASC
		LIMIT $2
	`
}

// UpsertEmbedding inserts or replaces vector and metadata in one statement.
func (db *Postgres) UpsertEmbedding(ctx context.Context, rec model.TicketEmbedding) error {
	if err := checkDimension(rec.Vector, db.Dimension); err != nil {
		return err
	}
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	_, err = db.Pool.Exec(ctx, embeddingUpsertQuery(), rec.TicketID, pgvector.NewVector(rec.Vector), metadata)
	if err != nil {
		return fmt.Errorf("%w: upsert ticket_id=%s: %v", errs.ErrStoreUnavailable, rec.TicketID, err)
	}
	return nil
}

// Nearest returns up to k records ordered by cosine distance, ties by ticket_id.
func (db *Postgres) Nearest(ctx context.Context, vector []float32, k int) ([]model.ScoredTicket, error) {
	if err := checkDimension(vector, db.Dimension); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []model.ScoredTicket{}, nil
	}

	rows, err := db.Pool.Query(ctx, embeddingNearestQuery(), pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("%w: nearest: %v", errs.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	list := []model.ScoredTicket{}
	for rows.Next() {
		var (
			s   model.ScoredTicket
			raw []byte
		)
		if err := rows.Scan(&s.TicketID, &raw, &s.Distance); err != nil {
			return nil, fmt.Errorf("%w: scan nearest: %v", errs.ErrStoreUnavailable, err)
		}
		if err := json.Unmarshal(raw, &s.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for ticket_id=%s: %w", s.TicketID, err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: nearest rows: %v", errs.ErrStoreUnavailable, err)
	}
	return list, nil
}

func (db *Postgres) CountEmbeddings(ctx context.Context) (int, error) {
	var n int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", errs.ErrStoreUnavailable, err)
	}
	return n, nil
}

// ListEmbeddings returns every stored record (without vectors) ordered by ticket_id.
func (db *Postgres) ListEmbeddings(ctx context.Context) ([]model.ScoredTicket, error) {
	rows, err := db.Pool.Query(ctx, `SELECT ticket_id, metadata FROM ticket_embeddings ORDER BY ticket_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", errs.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	list := []model.ScoredTicket{}
	for rows.Next() {
		var (
			s   model.ScoredTicket
			raw []byte
		)
		if err := rows.Scan(&s.TicketID, &raw); err != nil {
			return nil, fmt.Errorf("%w: scan list: %v", errs.ErrStoreUnavailable, err)
		}
		if err := json.Unmarshal(raw, &s.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for ticket_id=%s: %w", s.TicketID, err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list rows: %v", errs.ErrStoreUnavailable, err)
	}
	return list, nil
}

// GetEmbedding returns (nil, nil) when ticket_id is not stored.
func (db *Postgres) GetEmbedding(ctx context.Context, ticketID string) (*model.TicketEmbedding, error) {
	var (
		rec model.TicketEmbedding
		vec pgvector.Vector
		raw []byte
	)
	err := db.Pool.QueryRow(ctx, `
		SELECT ticket_id, embedding, metadata, updated_at
		FROM ticket_embeddings
		WHERE ticket_id = $1
	`, ticketID).Scan(&rec.TicketID, &vec, &raw, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get ticket_id=%s: %v", errs.ErrStoreUnavailable, ticketID, err)
	}
	if err := json.Unmarshal(raw, &rec.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for ticket_id=%s: %w", ticketID, err)
	}
	rec.Vector = vec.Slice()
	return &rec, nil
}

func checkDimension(vector []float32, dimension int) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: got %d, want %d", errs.ErrDimensionMismatch, len(vector), dimension)
	}
	return nil
}
