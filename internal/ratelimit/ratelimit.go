package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every oracle call in a run.
type Limiter struct {
	lim *rate.Limiter
	rpm int
}

// New creates a limiter allowing requestsPerMinute calls with the given
// burst. requestsPerMinute <= 0 means unlimited.
func New(requestsPerMinute, burst int) *Limiter {
	if requestsPerMinute <= 0 {
		return Unlimited()
	}
	if burst < 1 {
		burst = 1
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &Limiter{
		lim: rate.NewLimiter(rate.Every(every), burst),
		rpm: requestsPerMinute,
	}
}

// Unlimited returns a limiter that never blocks.
func Unlimited() *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Inf, 0)}
}

// Wait blocks until a token is available. Waiting has no timeout of its own;
// only ctx can end it early.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// Limited reports whether the limiter ever blocks.
func (l *Limiter) Limited() bool {
	return l.lim.Limit() != rate.Inf
}

// String is used in startup logs.
func (l *Limiter) String() string {
	if !l.Limited() {
		return "unlimited"
	}
	return fmt.Sprintf("%d/min burst %d", l.rpm, l.lim.Burst())
}
