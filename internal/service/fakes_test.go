package service

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/ticket-rag/backend/internal/model"
)

const testDimension = 256

// hashEmbedder is a deterministic bag-of-words embedder.
type hashEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
	// errFor fails only texts containing this substring
	errFor string
}

func (h *hashEmbedder) embed(text string) ([]float32, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	if h.err != nil && (h.errFor == "" || strings.Contains(text, h.errFor)) {
		return nil, h.err
	}
	vec := make([]float32, testDimension)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		vec[f.Sum32()%testDimension]++
	}
	return vec, nil
}

func (h *hashEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return h.embed(text)
}

func (h *hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return h.embed(text)
}

func (h *hashEmbedder) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

type fakeTracker struct {
	issues      []model.JiraIssue
	comments    map[string][]string
	searchErr   error
	commentErr  error
	searchCalls int
}

func (f *fakeTracker) SearchTickets(context.Context, string) ([]model.JiraIssue, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.issues, nil
}

func (f *fakeTracker) FetchComments(_ context.Context, id string) ([]string, error) {
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	return f.comments[id], nil
}

func adfDoc(text string) []byte {
	return []byte(`{"type":"doc","version":1,"content":[{"type":"paragraph","content":[{"type":"text","text":"` + text + `"}]}]}`)
}

func issue(id, summary, description string) model.JiraIssue {
	return model.JiraIssue{
		ID:  id,
		Key: "SUP-" + id,
		Fields: model.JiraFields{
			Summary:     summary,
			Description: adfDoc(description),
			Priority:    &model.JiraNamed{Name: "High"},
			Status:      &model.JiraNamed{Name: "Done"},
		},
	}
}
