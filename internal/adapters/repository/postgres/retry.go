package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
)

const (
	maxTxRetries  = 5
	initialBackoff = 50 * time.Millisecond
	maxBackoff     = 800 * time.Millisecond
)

// isRetryable reports whether err is a transient lock/serialization
// failure worth retrying, per the Postgres error codes for
// deadlock_detected (40P01) and serialization_failure (40001).
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return true
		}
	}
	return false
}

// withRetry runs fn inside up to maxTxRetries attempts, backing off
// exponentially from initialBackoff to maxBackoff between attempts
// when fn fails with a retryable lock/serialization error, per the
// contention-retry rule in spec.md §4.2.
func withRetry(ctx context.Context, fn func() error) error {
	backoff := initialBackoff
	var lastErr error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return lastErr
}
