// Package retry provides bounded exponential backoff for provider calls.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config bounds a retried call. MaxAttempts counts total calls, not
// retries; the delay before attempt n+1 is InitialDelay * Multiplier^n,
// capped at MaxDelay.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig suits the short provider calls on the issuance path.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryWithResult runs fn until it succeeds, the attempts run out, or
// the context is canceled while waiting to retry.
func RetryWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry canceled: %w", ctx.Err())
			case <-time.After(cfg.backoff(attempt - 1)):
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return zero, fmt.Errorf("%d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

func (cfg Config) backoff(attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
