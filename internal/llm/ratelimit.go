package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket refilled continuously from the elapsed time
// since the last take. The bucket holds at most one minute's allowance.
type rateLimiter struct {
	now      func() time.Time
	last     time.Time
	tokens   float64
	perSec   float64
	capacity float64
	mu       sync.Mutex
}

func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &rateLimiter{
		now:      time.Now,
		last:     time.Now(),
		tokens:   float64(perMinute),
		perSec:   float64(perMinute) / 60,
		capacity: float64(perMinute),
	}
}

// reserve takes a token if one is available. Otherwise it reports how long
// until the next one accrues.
func (rl *rateLimiter) reserve() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens = min(rl.capacity, rl.tokens+now.Sub(rl.last).Seconds()*rl.perSec)
	rl.last = now

	if rl.tokens >= 1 {
		rl.tokens--
		return 0, true
	}
	return time.Duration((1 - rl.tokens) / rl.perSec * float64(time.Second)), false
}

func (rl *rateLimiter) tryAcquire() bool {
	_, ok := rl.reserve()
	return ok
}

// wait blocks until a token is taken or ctx ends.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay, ok := rl.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
