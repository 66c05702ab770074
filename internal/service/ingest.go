package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/ticket-rag/backend/internal/adf"
	"github.com/ticket-rag/backend/internal/errs"
	"github.com/ticket-rag/backend/internal/logger"
	"github.com/ticket-rag/backend/internal/metrics"
	"github.com/ticket-rag/backend/internal/model"
	"go.uber.org/zap"
)

type Tracker interface {
	SearchTickets(ctx context.Context, status string) ([]model.JiraIssue, error)
	FetchComments(ctx context.Context, ticketID string) ([]string, error)
}

type DocumentEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

type VectorWriter interface {
	UpsertEmbedding(ctx context.Context, rec model.TicketEmbedding) error
}

// IngestService - 트래커의 해결된 티켓을 벡터 스토어와 동기화
type IngestService struct {
	tracker       Tracker
	embedder      DocumentEmbedder
	store         VectorWriter
	workers       int
	defaultStatus string
	logger        *zap.Logger
}

func NewIngestService(tracker Tracker, embedder DocumentEmbedder, store VectorWriter, workers int, defaultStatus string, log *zap.Logger) *IngestService {
	if workers < 1 {
		workers = 1
	}
	if defaultStatus == "" {
		defaultStatus = "Done"
	}
	return &IngestService{
		tracker:       tracker,
		embedder:      embedder,
		store:         store,
		workers:       workers,
		defaultStatus: defaultStatus,
		logger:        logger.OrNop(log),
	}
}

// Sync fetches every ticket with the given status and upserts its embedding.
//
// 티켓 하나의 실패는 로그만 남기고 다음 티켓으로 진행합니다.
// 트래커 목록 조회 실패는 빈 결과로 degrade 됩니다.
// ErrDimensionMismatch 는 스키마 위반이므로 배치를 중단하고 에러를 반환합니다.
func (s *IngestService) Sync(ctx context.Context, status string) (result model.SyncResult, err error) {
	if status = strings.TrimSpace(status); status == "" {
		status = s.defaultStatus
	}
	start := time.Now()
	result = model.SyncResult{Status: "success"}
	defer func() {
		result.Duration = time.Since(start)
		metrics.IngestDuration.Observe(result.Duration.Seconds())
	}()

	issues, err := s.tracker.SearchTickets(ctx, status)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		metrics.TrackerFailuresTotal.WithLabelValues("search").Inc()
		s.logger.Error("[Ingest] Failed to fetch tickets, continuing with empty set",
			zap.String("status", status), zap.Error(err))
		result.Status = "degraded"
		return result, nil
	}
	result.Fetched = len(issues)

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return result, fmt.Errorf("failed to create ingest pool: %w", err)
	}
	defer pool.Release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		fatalErr error
	)
	record := func(issue model.JiraIssue, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			result.Indexed++
			metrics.IngestedTicketsTotal.WithLabelValues("indexed").Inc()
			return
		}
		result.Failed++
		metrics.IngestedTicketsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("[Ingest] Skipping ticket", zap.String("ticket_id", issue.ID), zap.Error(err))
		if errors.Is(err, errs.ErrDimensionMismatch) && fatalErr == nil {
			fatalErr = err
			cancel()
		}
	}

	for _, issue := range issues {
		if runCtx.Err() != nil {
			record(issue, runCtx.Err())
			continue
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			record(issue, s.IngestIssue(runCtx, issue))
		}); err != nil {
			wg.Done()
			record(issue, err)
		}
	}
	wg.Wait()

	if fatalErr != nil {
		result.Status = "failed"
		return result, fatalErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.Status = "canceled"
		return result, ctxErr
	}
	if result.Failed > 0 {
		result.Status = "partial"
	}
	s.logger.Info("[Ingest] Sync finished",
		zap.String("status", status),
		zap.Int("fetched", result.Fetched),
		zap.Int("indexed", result.Indexed),
		zap.Int("failed", result.Failed))
	return result, nil
}

// IngestIssue normalizes, embeds and upserts a single ticket.
func (s *IngestService) IngestIssue(ctx context.Context, issue model.JiraIssue) error {
	comments, err := s.tracker.FetchComments(ctx, issue.ID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.TrackerFailuresTotal.WithLabelValues("comments").Inc()
		s.logger.Warn("[Ingest] Failed to fetch comments, indexing without them",
			zap.String("ticket_id", issue.ID), zap.Error(err))
		comments = nil
	}

	ticket := NormalizeIssue(issue, comments)
	vector, err := s.embedder.EmbedText(ctx, ticket.CanonicalText())
	if err != nil {
		return fmt.Errorf("embed ticket_id=%s: %w", ticket.ID, err)
	}
	if err := s.store.UpsertEmbedding(ctx, model.TicketEmbedding{
		TicketID: ticket.ID,
		Vector:   vector,
		Metadata: ticket.Metadata(),
	}); err != nil {
		return fmt.Errorf("upsert ticket_id=%s: %w", ticket.ID, err)
	}
	return nil
}

// NormalizeIssue converts a tracker issue plus its comment thread into a Ticket.
func NormalizeIssue(issue model.JiraIssue, comments []string) model.Ticket {
	priority := model.UnknownField
	if issue.Fields.Priority != nil && issue.Fields.Priority.Name != "" {
		priority = issue.Fields.Priority.Name
	}
	status := model.UnknownField
	if issue.Fields.Status != nil && issue.Fields.Status.Name != "" {
		status = issue.Fields.Status.Name
	}
	return model.Ticket{
		ID:          issue.ID,
		Key:         issue.Key,
		Title:       strings.TrimSpace(issue.Fields.Summary),
		Description: adf.Description(issue.Fields.Description),
		Comments:    comments,
		Priority:    priority,
		Status:      status,
	}
}
