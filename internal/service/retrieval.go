package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/logger"
	"github.com/ticket-rag/backend/internal/metrics"
	"github.com/ticket-rag/backend/internal/model"
	"go.uber.org/zap"
)

var ErrRetrievalFailed = errors.New("retrieval failed")

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type VectorReader interface {
	Nearest(ctx context.Context, vector []float32, k int) ([]model.ScoredTicket, error)
	CountEmbeddings(ctx context.Context) (int, error)
	ListEmbeddings(ctx context.Context) ([]model.ScoredTicket, error)
}

type RetrievalService struct {
	embedder QueryEmbedder
	store    VectorReader
	cfg      config.RetrievalConfig
	logger   *zap.Logger
}

func NewRetrievalService(embedder QueryEmbedder, store VectorReader, cfg config.RetrievalConfig, log *zap.Logger) *RetrievalService {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.QueryTurns <= 0 {
		cfg.QueryTurns = 3
	}
	return &RetrievalService{embedder: embedder, store: store, cfg: cfg, logger: logger.OrNop(log)}
}

// Retrieve embeds query and returns the k nearest tickets, closest first.
// k <= 0 uses the configured default.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) ([]model.TicketEvidence, error) {
	if k <= 0 {
		k = s.cfg.TopK
	}
	start := time.Now()
	defer func() { metrics.RetrievalDuration.Observe(time.Since(start).Seconds()) }()

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrRetrievalFailed, err)
	}
	scored, err := s.store.Nearest(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: nearest: %w", ErrRetrievalFailed, err)
	}

	evidence := make([]model.TicketEvidence, 0, len(scored))
	for _, sc := range scored {
		evidence = append(evidence, model.EvidenceFromScored(sc))
	}
	return evidence, nil
}

// Evidence picks the grounding tickets for a conversation. Top-K over the
// latest user turns by default; with mode=corpus and a small store the
// whole corpus is returned instead.
func (s *RetrievalService) Evidence(ctx context.Context, history []model.ChatTurn) ([]model.TicketEvidence, error) {
	if s.cfg.Mode == config.RetrievalModeCorpus {
		evidence, ok, err := s.corpus(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return evidence, nil
		}
	}
	return s.Retrieve(ctx, QueryText(history, s.cfg.QueryTurns), s.cfg.TopK)
}

func (s *RetrievalService) corpus(ctx context.Context) ([]model.TicketEvidence, bool, error) {
	n, err := s.store.CountEmbeddings(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("%w: count: %w", ErrRetrievalFailed, err)
	}
	if n > s.cfg.CorpusLimit {
		s.logger.Warn("[Retrieval] corpus too large for full flattening, using top-k",
			zap.Int("records", n), zap.Int("limit", s.cfg.CorpusLimit))
		return nil, false, nil
	}
	all, err := s.store.ListEmbeddings(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("%w: list: %w", ErrRetrievalFailed, err)
	}
	evidence := make([]model.TicketEvidence, 0, len(all))
	for _, sc := range all {
		evidence = append(evidence, model.EvidenceFromScored(sc))
	}
	return evidence, true, nil
}

// QueryText joins the last n user messages, oldest first.
func QueryText(history []model.ChatTurn, n int) string {
	var picked []string
	for i := len(history) - 1; i >= 0 && len(picked) < n; i-- {
		if history[i].Sender != model.SenderUser {
			continue
		}
		if msg := strings.TrimSpace(history[i].Message); msg != "" {
			picked = append(picked, msg)
		}
	}
	for i, j := 0, len(picked)-1; i < j; i, j = i+1, j-1 {
		picked[i], picked[j] = picked[j], picked[i]
	}
	return strings.Join(picked, "\n")
}
