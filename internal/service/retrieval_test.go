package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/db"
	"github.com/ticket-rag/backend/internal/errs"
	"github.com/ticket-rag/backend/internal/model"
)

func seededStore(t *testing.T, issues ...model.JiraIssue) *db.MemoryStore {
	t.Helper()
	store := db.NewMemoryStore(testDimension)
	svc := NewIngestService(&fakeTracker{issues: issues}, &hashEmbedder{}, store, 1, "", nil)
	if _, err := svc.Sync(context.Background(), "Done"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func corpusIssues() []model.JiraIssue {
	return []model.JiraIssue{
		issue("1", "vpn client disconnects", "vpn tunnel drops every hour"),
		issue("2", "printer jam", "paper stuck in tray two"),
		issue("3", "password reset", "user locked out of account"),
		issue("4", "email bounce", "outbound mail rejected by relay"),
	}
}

func TestRetrieveReturnsClosestFirst(t *testing.T) {
	store := seededStore(t, corpusIssues()...)
	svc := NewRetrievalService(&hashEmbedder{}, store, config.RetrievalConfig{TopK: 2}, nil)

	got, err := svc.Retrieve(context.Background(), "vpn tunnel drops", 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected default k=2 results, got %d", len(got))
	}
	if got[0].TicketID != "1" {
		t.Fatalf("expected vpn ticket first, got %+v", got[0])
	}
	if got[0].Distance > got[1].Distance {
		t.Fatalf("results not ordered by distance: %v > %v", got[0].Distance, got[1].Distance)
	}
}

func TestRetrieveSelfSimilarity(t *testing.T) {
	issues := corpusIssues()
	store := seededStore(t, issues...)
	svc := NewRetrievalService(&hashEmbedder{}, store, config.RetrievalConfig{}, nil)

	for _, is := range issues {
		text := NormalizeIssue(is, nil).CanonicalText()
		got, err := svc.Retrieve(context.Background(), text, 1)
		if err != nil {
			t.Fatalf("retrieve: %v", err)
		}
		if len(got) != 1 || got[0].TicketID != is.ID {
			t.Fatalf("ticket %s: expected itself as nearest, got %+v", is.ID, got)
		}
		if got[0].Distance > 1e-6 {
			t.Fatalf("ticket %s: expected zero distance, got %v", is.ID, got[0].Distance)
		}
	}
}

func TestRetrieveCapsAtStoreSize(t *testing.T) {
	store := seededStore(t, corpusIssues()[:2]...)
	svc := NewRetrievalService(&hashEmbedder{}, store, config.RetrievalConfig{}, nil)

	got, err := svc.Retrieve(context.Background(), "anything", 10)
	if err != nil || len(got) != 2 {
		t.Fatalf("expected 2 results, got %d (%v)", len(got), err)
	}
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	store := seededStore(t, corpusIssues()...)
	svc := NewRetrievalService(&hashEmbedder{err: errs.ErrEmbeddingUnavailable}, store, config.RetrievalConfig{}, nil)

	_, err := svc.Retrieve(context.Background(), "vpn", 3)
	if !errors.Is(err, ErrRetrievalFailed) || !errors.Is(err, errs.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrRetrievalFailed wrapping embedding error, got %v", err)
	}
}

func TestEvidenceCorpusMode(t *testing.T) {
	store := seededStore(t, corpusIssues()...)
	embedder := &hashEmbedder{}
	svc := NewRetrievalService(embedder, store, config.RetrievalConfig{
		TopK:        1,
		Mode:        config.RetrievalModeCorpus,
		CorpusLimit: 10,
	}, nil)

	got, err := svc.Evidence(context.Background(), []model.ChatTurn{{Sender: model.SenderUser, Message: "vpn"}})
	if err != nil {
		t.Fatalf("evidence: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected the whole corpus, got %d", len(got))
	}
	if embedder.callCount() != 0 {
		t.Fatalf("corpus mode should not embed the query")
	}
}

func TestEvidenceCorpusModeFallsBackWhenLarge(t *testing.T) {
	store := seededStore(t, corpusIssues()...)
	svc := NewRetrievalService(&hashEmbedder{}, store, config.RetrievalConfig{
		TopK:        1,
		Mode:        config.RetrievalModeCorpus,
		CorpusLimit: 2,
	}, nil)

	got, err := svc.Evidence(context.Background(), []model.ChatTurn{{Sender: model.SenderUser, Message: "printer paper stuck"}})
	if err != nil {
		t.Fatalf("evidence: %v", err)
	}
	if len(got) != 1 || got[0].TicketID != "2" {
		t.Fatalf("expected top-1 fallback to printer ticket, got %+v", got)
	}
}

func TestQueryText(t *testing.T) {
	history := []model.ChatTurn{
		{Sender: model.SenderUser, Message: "one"},
		{Sender: model.SenderBot, Message: "reply"},
		{Sender: model.SenderUser, Message: "two"},
		{Sender: model.SenderUser, Message: "  "},
		{Sender: model.SenderUser, Message: "three"},
		{Sender: model.SenderUser, Message: "four"},
	}
	tests := []struct {
		name string
		n    int
		want string
	}{
		{name: "last three user turns", n: 3, want: "two\nthree\nfour"},
		{name: "single", n: 1, want: "four"},
		{name: "more than available", n: 10, want: "one\ntwo\nthree\nfour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QueryText(history, tt.n); got != tt.want {
				t.Fatalf("QueryText() = %q, want %q", got, tt.want)
			}
		})
	}
}
