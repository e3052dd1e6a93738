// Package retry runs an operation with exponential backoff.
//
// connstats uses it for DuckDB contention: a query session opening the
// store while the collector holds the write lock, and ORM writes racing
// against pruning.
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return store.Open()
//	}, duckdb.IsLockConflict)
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config defines the retry behavior for exponential backoff operations.
type Config struct {
	// MaxRetries is the maximum number of attempts. Must be greater than 0.
	MaxRetries int

	// InitialBackoff is the wait before the second attempt. Each further
	// attempt doubles it.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Zero means no cap.
	MaxBackoff time.Duration

	// Jitter adds up to Jitter*backoff extra wait (0.0 to 1.0), growing
	// linearly with the attempt number.
	Jitter float64
}

// DefaultConfig is tuned for local DuckDB lock contention.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     10,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
		Jitter:         0.1,
	}
}

// ShouldRetryFunc reports whether err is transient. A nil func retries everything.
type ShouldRetryFunc func(error) bool

// Do calls fn until it succeeds, returns a non-retryable error, the context
// is done, or MaxRetries attempts have been made. Exhaustion wraps the last
// error.
func Do(ctx context.Context, cfg Config, fn func() error, shouldRetry ShouldRetryFunc) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(Backoff(cfg, attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

// Backoff returns the wait before the given attempt (1-based).
func Backoff(cfg Config, attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	backoff := time.Duration(math.Pow(2, float64(attempt-1)) * float64(cfg.InitialBackoff))

	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}

	if cfg.Jitter > 0 && cfg.MaxRetries > 0 {
		backoff += time.Duration(float64(backoff) * cfg.Jitter * float64(attempt) / float64(cfg.MaxRetries))
	}

	return backoff
}
