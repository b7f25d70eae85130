package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/kaikei/internal/service"
)

var (
	// ErrRateLimit marks an upstream throttling response.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries is returned once every attempt has failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError lets a caller veto or force a retry for a specific failure.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// backoff yields exponentially growing delays capped at max.
type backoff struct {
	next       time.Duration
	max        time.Duration
	multiplier float64
}

func newBackoff(opts service.RetryOptions) backoff {
	b := backoff{next: opts.InitialDelay, max: opts.MaxDelay, multiplier: opts.Multiplier}
	if b.next <= 0 {
		b.next = 100 * time.Millisecond
	}
	if b.max <= 0 {
		b.max = 30 * time.Second
	}
	if b.multiplier <= 1 {
		b.multiplier = 2
	}
	return b
}

// delay returns the wait before the next attempt. Throttling jumps straight
// to the ceiling.
func (b *backoff) delay(err error) time.Duration {
	if errors.Is(err, ErrRateLimit) || errors.Is(err, ErrPlaidRateLimit) {
		b.next = b.max
	}
	d := min(b.next, b.max)
	b.next = min(time.Duration(float64(b.next)*b.multiplier), b.max)
	return d
}

// WithRetry runs operation until it succeeds, returns a non-retryable
// RetryableError, or exhausts opts.MaxAttempts (default 3). Feed and export
// calls use it; reasoning calls degrade to a neutral suggestion instead.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	b := newBackoff(opts)

	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(); err == nil {
			return nil
		}

		var re *RetryableError
		if errors.As(err, &re) && !re.Retryable {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, attempts, err)
		}

		wait := b.delay(err)
		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", wait,
			"error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
