package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/errs"
	"google.golang.org/genai"
)

const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

type embedContentFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)

type EmbeddingClient struct {
	embed     embedContentFunc
	model     string
	dimension int
	maxChars  int
}

func NewEmbeddingClient(cfg config.EmbeddingConfig) (*EmbeddingClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing AI_API_KEY", errs.ErrEmbeddingUnavailable)
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEmbeddingUnavailable, err)
	}
	return newEmbeddingClient(client.Models.EmbedContent, cfg), nil
}

func newEmbeddingClient(embed embedContentFunc, cfg config.EmbeddingConfig) *EmbeddingClient {
	return &EmbeddingClient{
		embed:     embed,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		maxChars:  cfg.MaxChars,
	}
}

func (c *EmbeddingClient) Dimension() int { return c.dimension }

func (c *EmbeddingClient) Model() string { return c.model }

// EmbedText embeds ticket canonical text.
func (c *EmbeddingClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return c.embedWithTask(ctx, text, taskRetrievalDocument)
}

// EmbedQuery embeds conversation context at query time.
func (c *EmbeddingClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embedWithTask(ctx, text, taskRetrievalQuery)
}

func (c *EmbeddingClient) embedWithTask(ctx context.Context, text, task string) ([]float32, error) {
	text = strings.TrimSpace(text)
	// 빈 입력은 모델 호출 없이 zero vector
	if text == "" {
		return make([]float32, c.dimension), nil
	}
	if c.embed == nil {
		return nil, fmt.Errorf("%w: embedding model is not loaded", errs.ErrEmbeddingUnavailable)
	}
	text = truncateRunes(text, c.maxChars)

	dim := int32(c.dimension)
	res, err := c.embed(ctx, c.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             task,
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, classifyGenAIError(errs.ErrEmbeddingUnavailable, err)
	}
	if res == nil || len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, fmt.Errorf("%w: empty embedding result", errs.ErrEmbeddingUnavailable)
	}
	values := res.Embeddings[0].Values
	if len(values) != c.dimension {
		return nil, fmt.Errorf("%w: model %s returned %d values, want %d", errs.ErrDimensionMismatch, c.model, len(values), c.dimension)
	}
	return values, nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
