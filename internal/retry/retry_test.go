package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"movierama/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond}

func TestDo_SucceedsAfterConflicts(t *testing.T) {
	var retried []int
	p := fast
	p.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	got, err := Do(context.Background(), p, OnConflict, func(attempt int) (string, error) {
		if attempt < 3 {
			return "", apperr.ErrConcurrencyConflict
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast, OnConflict, func(int) (int, error) {
		calls++
		return 0, apperr.ErrSelfVoteForbidden
	})

	assert.ErrorIs(t, err, apperr.ErrSelfVoteForbidden)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustedAttemptsKeepSentinel(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast, OnConflict, func(int) (int, error) {
		calls++
		return 0, apperr.Wrap(apperr.ErrConcurrencyConflict, errors.New("duplicate key"))
	})

	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, InitialBackoff: time.Hour}

	_, err := Do(ctx, p, OnConflict, func(int) (int, error) {
		cancel()
		return 0, apperr.ErrConcurrencyConflict
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)
}

func TestDo_ContextCancelledWithoutBackoffKeepsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5}

	calls := 0
	_, err := Do(ctx, p, OnConflict, func(int) (int, error) {
		calls++
		cancel()
		return 0, apperr.ErrConcurrencyConflict
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, apperr.ErrConcurrencyConflict)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, _ = Do(context.Background(), Policy{}, OnConflict, func(int) (int, error) {
		calls++
		return 0, apperr.ErrConcurrencyConflict
	})
	assert.Equal(t, 1, calls)
}
