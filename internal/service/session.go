package service

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/ticket-rag/backend/internal/metrics"
)

// ChatSession is one conversation handle on the chat model side.
type ChatSession interface {
	Send(ctx context.Context, prompt string) (string, error)
}

type ChatModel interface {
	StartChat(ctx context.Context) (ChatSession, error)
}

// ChatModelFunc adapts a constructor to ChatModel.
type ChatModelFunc func(ctx context.Context) (ChatSession, error)

func (f ChatModelFunc) StartChat(ctx context.Context) (ChatSession, error) { return f(ctx) }

type sessionEntry struct {
	mu    sync.Mutex
	chat  ChatSession
	turns int
}

// SessionStore - conversationId 별 chat handle 보관
//
// 프로세스 전역 handle 하나를 공유하지 않고 세션마다 분리합니다.
// 같은 세션의 턴은 entry mutex 로 직렬화됩니다.
// 최대 maxSessions 개까지 LRU 로 유지하고, ttl 동안 사용되지 않은 세션은 만료됩니다.
type SessionStore struct {
	mu       sync.Mutex
	cache    *expirable.LRU[string, *sessionEntry]
	maxTurns int
}

// NewSessionStore - maxSessions <= 0 이면 개수 제한 없음, ttl <= 0 이면 만료 없음
func NewSessionStore(ttl time.Duration, maxSessions, maxTurns int) *SessionStore {
	return &SessionStore{
		cache:    expirable.NewLRU[string, *sessionEntry](maxSessions, nil, ttl),
		maxTurns: maxTurns,
	}
}

// acquire returns the locked entry for id; callers must call release.
func (s *SessionStore) acquire(id string) (*sessionEntry, func()) {
	s.mu.Lock()
	entry, ok := s.cache.Get(id)
	if !ok {
		entry = &sessionEntry{}
	}
	// Add 로 만료 시각을 갱신
	s.cache.Add(id, entry)
	metrics.ActiveSessions.Set(float64(s.cache.Len()))
	s.mu.Unlock()

	entry.mu.Lock()
	return entry, entry.mu.Unlock
}

// Send lazily starts the session's chat handle and sends prompt through it.
// The handle is restarted once it has carried maxTurns turns.
func (s *SessionStore) Send(ctx context.Context, id string, model ChatModel, prompt string) (string, error) {
	entry, release := s.acquire(id)
	defer release()

	if entry.chat == nil || (s.maxTurns > 0 && entry.turns >= s.maxTurns) {
		chat, err := model.StartChat(ctx)
		if err != nil {
			return "", err
		}
		entry.chat = chat
		entry.turns = 0
	}

	text, err := entry.chat.Send(ctx, prompt)
	if err != nil {
		return "", err
	}
	entry.turns++
	return text, nil
}

func (s *SessionStore) Len() int {
	return s.cache.Len()
}
