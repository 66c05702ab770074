package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ticket-rag/backend/internal/client"
	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/db"
	"github.com/ticket-rag/backend/internal/logger"
	"github.com/ticket-rag/backend/internal/service"
	"go.uber.org/zap"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

// vectorStore is the full method set shared by db.Postgres and db.MemoryStore.
type vectorStore interface {
	service.VectorWriter
	service.VectorReader
}

// app holds the collaborators every subcommand builds from config.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	pool     *pgxpool.Pool
	store    vectorStore
	embedder *client.EmbeddingClient
	jira     *client.JiraClient
}

func newApp(ctx context.Context, storeKind string) (*app, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}
	if err := a.openStore(ctx, storeKind); err != nil {
		a.Close()
		return nil, err
	}

	embedder, err := client.NewEmbeddingClient(cfg.Embedding)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init embedding client: %w", err)
	}
	a.embedder = embedder
	a.jira = client.NewJiraClient(cfg.Jira)
	if !a.jira.IsConfigured() {
		log.Warn("[Jira] JIRA_BASE_URL/JIRA_EMAIL/JIRA_API_TOKEN not set, ticket sync will be degraded")
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context, storeKind string) error {
	switch storeKind {
	case storeMemory:
		a.log.Warn("[DB] Using in-memory vector store, embeddings are lost on exit")
		a.store = db.NewMemoryStore(a.cfg.Embedding.Dimension)
		return nil
	case storePostgres, "":
		pool, err := db.NewPostgresPool(ctx, a.cfg.Postgres)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.pool = pool
		pg := db.NewPostgres(pool, a.cfg.Embedding.Dimension)
		if err := pg.EnsureEmbeddingSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure embedding schema: %w", err)
		}
		a.store = pg
		return nil
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", storeKind, storePostgres, storeMemory)
	}
}

func (a *app) ingestService() *service.IngestService {
	return service.NewIngestService(a.jira, a.embedder, a.store, a.cfg.Ingest.Workers, a.cfg.Jira.DoneStatus, a.log)
}

func (a *app) retrievalService() *service.RetrievalService {
	return service.NewRetrievalService(a.embedder, a.store, a.cfg.Retrieval, a.log)
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
