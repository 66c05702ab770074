package service

import (
	"context"

	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/logger"
	"github.com/ticket-rag/backend/internal/metrics"
	"github.com/ticket-rag/backend/internal/model"
	"go.uber.org/zap"
)

type IssueSearcher interface {
	SearchTickets(ctx context.Context, status string) ([]model.JiraIssue, error)
}

// BoardService - 대시보드용 트래커 조회 (done / in progress)
// 벡터 스토어를 거치지 않고 트래커를 직접 읽습니다.
type BoardService struct {
	tracker          IssueSearcher
	doneStatus       string
	inProgressStatus string
	logger           *zap.Logger
}

func NewBoardService(tracker IssueSearcher, cfg config.JiraConfig, log *zap.Logger) *BoardService {
	done := cfg.DoneStatus
	if done == "" {
		done = "Done"
	}
	inProgress := cfg.InProgressStatus
	if inProgress == "" {
		inProgress = "In Progress"
	}
	return &BoardService{
		tracker:          tracker,
		doneStatus:       done,
		inProgressStatus: inProgress,
		logger:           logger.OrNop(log),
	}
}

// Board returns done and in-progress issues. A failed tracker call
// degrades to an empty column.
func (s *BoardService) Board(ctx context.Context) (*model.TicketBoardResponse, error) {
	done, err := s.column(ctx, s.doneStatus)
	if err != nil {
		return nil, err
	}
	inProgress, err := s.column(ctx, s.inProgressStatus)
	if err != nil {
		return nil, err
	}
	return &model.TicketBoardResponse{Done: done, InProgress: inProgress}, nil
}

func (s *BoardService) column(ctx context.Context, status string) ([]model.JiraIssue, error) {
	issues, err := s.tracker.SearchTickets(ctx, status)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.TrackerFailuresTotal.WithLabelValues("board").Inc()
		s.logger.Error("[Board] Failed to fetch tickets, returning empty column",
			zap.String("status", status), zap.Error(err))
		return []model.JiraIssue{}, nil
	}
	if issues == nil {
		issues = []model.JiraIssue{}
	}
	return issues, nil
}
