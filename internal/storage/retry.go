package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultRetryAttempts bounds retries of transient failures.
	DefaultRetryAttempts = 3
	// DefaultRetryBackoff is the first retry delay; it doubles per
	// attempt. No jitter, so retry timing stays deterministic in tests.
	DefaultRetryBackoff = 50 * time.Millisecond
)

// TransientError marks a failure worth retrying. Store implementations
// wrap connection-level errors with it; anything else is permanent and
// surfaces immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether the error chain contains a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// Retry runs fn with bounded exponential backoff on transient errors.
// Permanent errors and context cancellation stop it immediately.
func Retry(ctx context.Context, logger *zap.Logger, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			logger.Warn("retrying after transient storage failure",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		err = fn(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
