package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound calls for one platform: a steady token-bucket
// interval plus an exponential penalty after rate-limit or transient
// failures. Safe to share across the platform's concurrent tasks; quotas are
// per-platform, so each platform gets its own instance.
type Limiter struct {
	limiter *rate.Limiter

	mu      sync.Mutex
	penalty int

	backoffBase time.Duration
	backoffMax  time.Duration

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter allows one call per minInterval with exponential backoff
// bounded by backoffMax after failures.
func NewLimiter(minInterval, backoffBase, backoffMax time.Duration) *Limiter {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	if backoffBase <= 0 {
		backoffBase = 2 * time.Second
	}
	if backoffMax <= 0 {
		backoffMax = time.Minute
	}
	return &Limiter{
		limiter:     rate.NewLimiter(rate.Every(minInterval), 1),
		backoffBase: backoffBase,
		backoffMax:  backoffMax,
		sleep:       sleepCtx,
	}
}

// Acquire blocks until a call is permitted. After n Backoff calls the next
// Acquire adds a min(base*2^(n-1), max) delay on top of the steady interval.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	if d := l.penaltyDelay(); d > 0 {
		return l.sleep(ctx, d)
	}
	return nil
}

// Backoff records a slow-down signal; the penalty grows until Reset.
func (l *Limiter) Backoff() {
	l.mu.Lock()
	l.penalty++
	l.mu.Unlock()
}

// Reset clears the penalty after a successful call.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.penalty = 0
	l.mu.Unlock()
}

func (l *Limiter) penaltyDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.penalty == 0 {
		return 0
	}
	d := l.backoffBase << (l.penalty - 1)
	if d > l.backoffMax || d <= 0 {
		d = l.backoffMax
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
