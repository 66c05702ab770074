package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/errs"
	"github.com/ticket-rag/backend/internal/logger"
	"github.com/ticket-rag/backend/internal/metrics"
	"github.com/ticket-rag/backend/internal/model"
	"github.com/ticket-rag/backend/internal/template"
	"go.uber.org/zap"
)

var ErrInvalidChatRequest = errors.New("invalid chat request")

// isNew 요청에 돌려주는 미리보기 길이 (rune)
const previewLength = 100

type EvidenceRetriever interface {
	Evidence(ctx context.Context, history []model.ChatTurn) ([]model.TicketEvidence, error)
}

// ChatResult - 한 턴의 결과. History 는 호출자가 보낸 이력에 이번 user 턴을 붙인 사본.
type ChatResult struct {
	Response       string
	ConversationID string
	History        []model.ChatTurn
	Evidence       []model.TicketEvidence
}

type ChatService struct {
	retriever   EvidenceRetriever
	model       ChatModel
	sessions    *SessionStore
	prompt      string
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

func NewChatService(retriever EvidenceRetriever, chatModel ChatModel, sessions *SessionStore, cfg config.ChatConfig, log *zap.Logger) *ChatService {
	return &ChatService{
		retriever:   retriever,
		model:       chatModel,
		sessions:    sessions,
		prompt:      template.DefaultPrompt,
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      logger.OrNop(log),
	}
}

// Reply handles one inbound turn.
//
// isNew=true 이면 retrieval/chat 호출 없이 미리보기만 반환합니다.
// 그 외에는 user 턴을 이력 사본에 붙이고, 근거 티켓을 조회해 프롬프트를 만든 뒤
// 세션별 chat handle 로 전송합니다. 호출자의 이력 slice 는 수정하지 않습니다.
func (s *ChatService) Reply(ctx context.Context, req model.BotRequest) (*ChatResult, error) {
	if req.IsNew {
		metrics.ChatRequestsTotal.WithLabelValues("preview").Inc()
		return &ChatResult{Response: template.Preview(req.Text, previewLength)}, nil
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required when isNew=false", ErrInvalidChatRequest)
	}
	history, err := appendUserTurn(req.ConversationHistory, text)
	if err != nil {
		return nil, err
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	result := &ChatResult{ConversationID: conversationID, History: history}

	evidence, err := s.retriever.Evidence(ctx, history)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		s.logger.Error("[Chat] Retrieval failed", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, err
	}
	result.Evidence = evidence

	prompt := template.RenderPrompt(s.prompt, template.PromptData{
		Evidence: evidence,
		History:  history,
	})

	answer, err := s.send(ctx, conversationID, prompt)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		s.logger.Error("[Chat] Chat model failed", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, err
	}

	metrics.ChatRequestsTotal.WithLabelValues("success").Inc()
	result.Response = answer
	return result, nil
}

func (s *ChatService) send(ctx context.Context, conversationID, prompt string) (string, error) {
	start := time.Now()
	defer func() { metrics.ChatModelDuration.Observe(time.Since(start).Seconds()) }()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var answer string
	err := retryTransient(ctx, s.maxAttempts, s.retryDelay, func(attempt int) error {
		if attempt > 1 {
			s.logger.Warn("[Chat] Retrying chat model call",
				zap.String("conversation_id", conversationID), zap.Int("attempt", attempt))
		}
		var sendErr error
		answer, sendErr = s.sessions.Send(ctx, conversationID, s.model, prompt)
		return sendErr
	})
	if err != nil {
		if errors.Is(err, errs.ErrChatModelFailure) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", errs.ErrChatModelFailure, err)
	}
	return answer, nil
}

// appendUserTurn validates senders and returns a copy of history with the
// user message appended.
func appendUserTurn(history []model.ChatTurn, text string) ([]model.ChatTurn, error) {
	out := make([]model.ChatTurn, 0, len(history)+1)
	for i, turn := range history {
		sender := strings.ToLower(strings.TrimSpace(turn.Sender))
		if sender != model.SenderUser && sender != model.SenderBot {
			return nil, fmt.Errorf("%w: conversationHistory[%d] has unknown sender %q", ErrInvalidChatRequest, i, turn.Sender)
		}
		out = append(out, model.ChatTurn{Sender: sender, Message: turn.Message})
	}
	return append(out, model.ChatTurn{Sender: model.SenderUser, Message: text}), nil
}
