package service

import (
	"context"
	"time"

	"github.com/ticket-rag/backend/internal/errs"
)

// retryTransient runs op up to maxAttempts times, doubling the delay after
// each transient failure. Non-transient errors return immediately.
func retryTransient(ctx context.Context, maxAttempts int, baseDelay time.Duration, op func(attempt int) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(attempt)
		if lastErr == nil || !errs.IsTransient(lastErr) || attempt == maxAttempts {
			return lastErr
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}
