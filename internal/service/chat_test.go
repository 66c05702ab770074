package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ticket-rag/backend/internal/config"
	"github.com/ticket-rag/backend/internal/errs"
	"github.com/ticket-rag/backend/internal/model"
)

type fakeRetriever struct {
	mu       sync.Mutex
	calls    int
	history  []model.ChatTurn
	evidence []model.TicketEvidence
	err      error
}

func (f *fakeRetriever) Evidence(_ context.Context, history []model.ChatTurn) ([]model.TicketEvidence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.history = history
	return f.evidence, f.err
}

// flakySession fails with a transient error for the first `failures` sends.
type flakySession struct {
	failures int
	sends    int
}

func (f *flakySession) Send(context.Context, string) (string, error) {
	f.sends++
	if f.sends <= f.failures {
		return "", &errs.Transient{Err: errors.New("429 resource exhausted")}
	}
	return "recovered", nil
}

func newChatService(retriever EvidenceRetriever, chatModel ChatModel) *ChatService {
	return NewChatService(retriever, chatModel, NewSessionStore(time.Hour, 100, 0), config.ChatConfig{
		Timeout:     time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	}, nil)
}

func TestReplyPreviewSkipsCollaborators(t *testing.T) {
	long := strings.Repeat("가", 150)
	tests := []struct {
		name    string
		text    string
		history []model.ChatTurn
		want    string
	}{
		{name: "short", text: "hello", want: "hello..."},
		{name: "truncated", text: long, want: strings.Repeat("가", 100) + "..."},
		{name: "history ignored", text: "hi", history: []model.ChatTurn{{Sender: "alien", Message: "x"}}, want: "hi..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := &fakeRetriever{}
			chatModel := &fakeChatModel{}
			svc := newChatService(retriever, chatModel)

			res, err := svc.Reply(context.Background(), model.BotRequest{Text: tt.text, IsNew: true, ConversationHistory: tt.history})
			if err != nil {
				t.Fatalf("reply: %v", err)
			}
			if res.Response != tt.want {
				t.Fatalf("Response = %q, want %q", res.Response, tt.want)
			}
			if retriever.calls != 0 || chatModel.started() != 0 {
				t.Fatalf("preview must not call retrieval or chat: retrieval=%d chat=%d", retriever.calls, chatModel.started())
			}
		})
	}
}

func TestReplyAppendsUserTurnWithoutMutatingCaller(t *testing.T) {
	retriever := &fakeRetriever{evidence: []model.TicketEvidence{{TicketID: "42", Summary: "vpn drops"}}}
	chatModel := &fakeChatModel{}
	svc := newChatService(retriever, chatModel)

	history := make([]model.ChatTurn, 1, 4)
	history[0] = model.ChatTurn{Sender: "User", Message: "earlier"}
	res, err := svc.Reply(context.Background(), model.BotRequest{
		Text:                "vpn keeps dropping",
		ConversationHistory: history,
		ConversationID:      "conv-1",
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if res.Response != "answer" || res.ConversationID != "conv-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(history) != 1 || history[0].Sender != "User" {
		t.Fatalf("caller history mutated: %+v", history)
	}
	if got := history[:2][1]; got.Message != "" {
		t.Fatalf("caller backing array written: %+v", got)
	}

	if len(res.History) != 2 {
		t.Fatalf("expected 2 turns, got %+v", res.History)
	}
	last := res.History[1]
	if last.Sender != model.SenderUser || last.Message != "vpn keeps dropping" {
		t.Fatalf("unexpected appended turn: %+v", last)
	}
	if len(retriever.history) != 2 || retriever.history[1].Message != "vpn keeps dropping" {
		t.Fatalf("retriever did not see the new turn: %+v", retriever.history)
	}

	prompt := chatModel.sessions[0].prompts[0]
	for _, want := range []string{"Ticket ID: 42", "user: earlier", "user: vpn keeps dropping"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestReplyFirstTurnOnEmptyHistory(t *testing.T) {
	retriever := &fakeRetriever{}
	chatModel := &fakeChatModel{}
	svc := newChatService(retriever, chatModel)

	res, err := svc.Reply(context.Background(), model.BotRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if res.ConversationID == "" {
		t.Fatalf("expected generated conversation id")
	}
	want := model.ChatTurn{Sender: model.SenderUser, Message: "hi"}
	if len(res.History) != 1 || res.History[0] != want {
		t.Fatalf("expected single user turn, got %+v", res.History)
	}
	// 모델 호출 전에 이미 턴이 붙어 있어야 함
	if len(retriever.history) != 1 || retriever.history[0] != want {
		t.Fatalf("retriever saw %+v", retriever.history)
	}
	if !strings.Contains(chatModel.sessions[0].prompts[0], "user: hi") {
		t.Fatalf("prompt missing user turn")
	}
}

func TestReplyRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  model.BotRequest
	}{
		{name: "empty text", req: model.BotRequest{Text: "   "}},
		{name: "unknown sender", req: model.BotRequest{Text: "hi", ConversationHistory: []model.ChatTurn{{Sender: "system", Message: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := &fakeRetriever{}
			svc := newChatService(retriever, &fakeChatModel{})
			_, err := svc.Reply(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidChatRequest) {
				t.Fatalf("expected ErrInvalidChatRequest, got %v", err)
			}
			if retriever.calls != 0 {
				t.Fatalf("invalid request should not reach retrieval")
			}
		})
	}
}

func TestReplyPropagatesRetrievalFailure(t *testing.T) {
	chatModel := &fakeChatModel{}
	svc := newChatService(&fakeRetriever{err: ErrRetrievalFailed}, chatModel)

	_, err := svc.Reply(context.Background(), model.BotRequest{Text: "hi"})
	if !errors.Is(err, ErrRetrievalFailed) {
		t.Fatalf("expected ErrRetrievalFailed, got %v", err)
	}
	if chatModel.started() != 0 {
		t.Fatalf("chat model must not be called after retrieval failure")
	}
}

func TestReplyWrapsChatFailure(t *testing.T) {
	svc := newChatService(&fakeRetriever{}, &fakeChatModel{sendErr: errors.New("safety block")})

	_, err := svc.Reply(context.Background(), model.BotRequest{Text: "hi"})
	if !errors.Is(err, errs.ErrChatModelFailure) {
		t.Fatalf("expected ErrChatModelFailure, got %v", err)
	}
}

func TestReplyRetriesTransientChatErrors(t *testing.T) {
	session := &flakySession{failures: 2}
	chatModel := ChatModelFunc(func(context.Context) (ChatSession, error) { return session, nil })
	svc := newChatService(&fakeRetriever{}, chatModel)

	res, err := svc.Reply(context.Background(), model.BotRequest{Text: "hi", ConversationID: "c"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if res.Response != "recovered" || session.sends != 3 {
		t.Fatalf("expected success on third attempt, got %q after %d sends", res.Response, session.sends)
	}
}

func TestReplyGivesUpAfterMaxAttempts(t *testing.T) {
	session := &flakySession{failures: 10}
	chatModel := ChatModelFunc(func(context.Context) (ChatSession, error) { return session, nil })
	svc := newChatService(&fakeRetriever{}, chatModel)

	_, err := svc.Reply(context.Background(), model.BotRequest{Text: "hi", ConversationID: "c"})
	if !errors.Is(err, errs.ErrChatModelFailure) || session.sends != 3 {
		t.Fatalf("expected ErrChatModelFailure after 3 sends, got %v after %d", err, session.sends)
	}
}
