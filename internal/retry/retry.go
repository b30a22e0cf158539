// Package retry re-runs an operation while its errors are classified as
// transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"movierama/internal/apperr"
)

type Action int

const (
	Stop  Action = iota // permanent error, abort immediately
	Retry               // transient error, back off and try again
)

type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	OnRetry        func(attempt int, err error, backoff time.Duration)
}

type Classify func(err error) Action

// OnConflict retries apperr.ErrConcurrencyConflict and stops on anything else.
func OnConflict(err error) Action {
	if apperr.Retryable(err) {
		return Retry
	}
	return Stop
}

// Do runs op up to p.MaxAttempts times. The last error stays in the returned
// chain, so errors.Is keeps matching its sentinel.
func Do[T any](ctx context.Context, p Policy, classify Classify, op func(attempt int) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.InitialBackoff

	for attempt := 1; ; attempt++ {
		val, err := op(attempt)
		if err == nil {
			return val, nil
		}
		if classify(err) == Stop {
			return zero, err
		}
		if attempt >= attempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", attempts, err)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, backoff)
		}

		if backoff > 0 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return zero, fmt.Errorf("context cancelled during retry: %w", errors.Join(err, ctx.Err()))
			}
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, errors.Join(err, ctxErr)
		}
	}
}
