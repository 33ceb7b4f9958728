package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig(attempts int) Config {
	return Config{
		Attempts:     attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("still down")
	calls := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		calls++
		return sentinel
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Equal(t, 3, calls)
}

func TestDo_CancelledContextNeverRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, fastConfig(3), func() error {
		calls++
		return errors.New("unreachable")
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestDo_TimeoutCutsRetriesShort(t *testing.T) {
	cfg := Config{
		Attempts:     10,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   1.0,
		Timeout:      10 * time.Millisecond,
	}

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return errors.New("slow dependency")
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// The timeout fires during the first backoff sleep.
	assert.Equal(t, 1, calls)
}

func TestDoNotify_ReportsEachRetriedFailure(t *testing.T) {
	var attempts []int
	err := DoNotify(context.Background(), fastConfig(3), func() error {
		return errors.New("nope")
	}, func(attempt int, err error, next time.Duration) {
		attempts = append(attempts, attempt)
		assert.Error(t, err)
		assert.Greater(t, next, time.Duration(0))
	})

	assert.Error(t, err)
	// The final failed attempt is not retried, so it is not notified.
	assert.Equal(t, []int{1, 2}, attempts)
}
