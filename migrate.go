package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/db"
	"github.com/ticket-rag/backend/internal/logger"
	"go.uber.org/zap"
)

func migrateCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the pgvector extension, embeddings table and index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			pool, err := db.NewPostgresPool(cmd.Context(), cfg.Postgres)
			if err != nil {
				return fmt.Errorf("failed to connect to postgres: %w", err)
			}
			defer pool.Close()

			if err := db.NewPostgres(pool, cfg.Embedding.Dimension).EnsureEmbeddingSchema(cmd.Context()); err != nil {
				return err
			}
			log.Info("[DB] Embedding schema ready", zap.Int("dimension", cfg.Embedding.Dimension))
			return nil
		},
	}
}
