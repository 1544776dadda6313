package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a token bucket refilled at r tokens per second holding at
// most b tokens.
func NewLimiter(r float64, b int) *Limiter {
	if b < 1 {
		b = 1
	}
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow reports whether an event with weight n may happen now.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}

// Delay reports how long a caller would wait for one token, without taking it.
func (l *Limiter) Delay() time.Duration {
	now := time.Now()
	r := l.inner.ReserveN(now, 1)
	if !r.OK() {
		return 0
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return d
}
