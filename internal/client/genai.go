package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/errs"
	"google.golang.org/genai"
)

// 생성 파라미터는 고정값 (요청별 override 불가)
const (
	chatTemperature     = 0.9
	chatTopP            = 0.5
	chatTopK            = 5
	chatMaxOutputTokens = 1000
)

var chatSafetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

func generationConfig() *genai.GenerateContentConfig {
	safety := make([]*genai.SafetySetting, 0, len(chatSafetyCategories))
	for _, category := range chatSafetyCategories {
		safety = append(safety, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](chatTemperature),
		TopP:            genai.Ptr[float32](chatTopP),
		TopK:            genai.Ptr[float32](chatTopK),
		MaxOutputTokens: chatMaxOutputTokens,
		SafetySettings:  safety,
	}
}

// GenAIChatClient starts one genai chat per conversation session.
type GenAIChatClient struct {
	client *genai.Client
	model  string
}

func NewGenAIChatClient(cfg config.ChatConfig) (*GenAIChatClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing AI_API_KEY", errs.ErrChatModelFailure)
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrChatModelFailure, err)
	}
	return &GenAIChatClient{client: client, model: cfg.Model}, nil
}

// StartChat creates a fresh server-side conversation handle.
func (c *GenAIChatClient) StartChat(ctx context.Context) (*GenAIChat, error) {
	chat, err := c.client.Chats.Create(ctx, c.model, generationConfig(), nil)
	if err != nil {
		return nil, classifyGenAIError(errs.ErrChatModelFailure, err)
	}
	return &GenAIChat{chat: chat}, nil
}

type GenAIChat struct {
	chat *genai.Chat
}

func (c *GenAIChat) Send(ctx context.Context, prompt string) (string, error) {
	resp, err := c.chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", classifyGenAIError(errs.ErrChatModelFailure, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: empty response", errs.ErrChatModelFailure)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", errs.ErrChatModelFailure, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response blocked by safety settings", errs.ErrChatModelFailure)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: model returned empty answer", errs.ErrChatModelFailure)
	}
	return text, nil
}

// classifyGenAIError wraps err with category and marks rate limits, 5xx and
// network failures as transient.
func classifyGenAIError(category, err error) error {
	wrapped := fmt.Errorf("%w: %v", category, err)
	if isTransientGenAIError(err) {
		return &errs.Transient{Err: wrapped}
	}
	return wrapped
}

func isTransientGenAIError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return retryableStatus(apiErrPtr.Code)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == 429 || code == 500 || code == 502 || code == 503 || code == 504
}
