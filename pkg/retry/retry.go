package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config controls the backoff schedule of a retried operation.
type Config struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Timeout bounds the whole retry loop, sleeps included. Zero means no
	// overall bound beyond the caller's context.
	Timeout time.Duration
}

// DefaultConfig is tuned for waiting out a dependency restart: about a
// minute of attempts with delays growing from 100ms to 10s.
func DefaultConfig() Config {
	return Config{
		Attempts:     10,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Timeout:      60 * time.Second,
	}
}

// NotifyFunc is called after each failed attempt that will be retried, with
// the nominal delay before the next one.
type NotifyFunc func(attempt int, err error, next time.Duration)

// Do runs op until it succeeds, the attempts are exhausted or the context
// ends. The returned error wraps the last failure.
func Do(ctx context.Context, cfg Config, op func() error) error {
	return DoNotify(ctx, cfg, op, nil)
}

// DoNotify is Do with a callback between attempts, for logging.
func DoNotify(ctx context.Context, cfg Config, op func() error, notify NotifyFunc) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return abortErr(attempt-1, err, lastErr)
		}

		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt >= cfg.Attempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, lastErr)
		}
		if notify != nil {
			notify(attempt, lastErr, delay)
		}

		select {
		case <-ctx.Done():
			return abortErr(attempt, ctx.Err(), lastErr)
		case <-time.After(withJitter(delay)):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// withJitter spreads a delay over [d/2, d] so restarting replicas do not
// hammer a recovering dependency in lockstep.
func withJitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

func abortErr(attempts int, ctxErr, lastErr error) error {
	if lastErr != nil {
		return fmt.Errorf("aborted after %d attempts: %w (last error: %v)", attempts, ctxErr, lastErr)
	}
	return fmt.Errorf("aborted: %w", ctxErr)
}
