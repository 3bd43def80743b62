package db

import (
	"context"
	"errors"
	"time"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// RetryConflicts runs fn up to attempts times while it fails with
// shared.ErrConflict. A replayed idempotency key is never retried.
func RetryConflicts(ctx context.Context, attempts int, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !retryable(err) || attempt == attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		}
	}
	return err
}

func retryable(err error) bool {
	return errors.Is(err, shared.ErrConflict) && !errors.Is(err, shared.ErrIdempotencyConflict)
}
