// Package errs defines the failure categories shared by the ingestion,
// retrieval and conversation paths.
//
// 호출 측은 errors.Is 로 분류하고, 각 계층은 fmt.Errorf("...: %w") 로 감싸서 전달합니다.
package errs

import "errors"

var (
	// ErrTrackerUnavailable - 트래커가 200 이외의 응답을 반환했거나 호출 자체가 실패
	ErrTrackerUnavailable = errors.New("tracker unavailable")

	// ErrEmbeddingUnavailable - 임베딩 모델을 호출할 수 없음
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrDimensionMismatch - 벡터 차원이 스토어 스키마와 다름 (절대 자르거나 패딩하지 않음)
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrStoreUnavailable - DB 연결/트랜잭션 실패
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrChatModelFailure - 채팅 모델 호출 실패 (quota, network, safety block)
	ErrChatModelFailure = errors.New("chat model failure")
)

// Transient marks failures worth retrying (rate limits, 5xx, dropped connections).
type Transient struct {
	Err error
}

func (e *Transient) Error() string { return e.Err.Error() }

func (e *Transient) Unwrap() error { return e.Err }

// IsTransient reports whether err was marked as retryable somewhere in its chain.
func IsTransient(err error) bool {
	var t *Transient
	return errors.As(err, &t)
}
