// internal/utils/rate_limiter.go
package utils

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps the golang.org/x/time/rate limiter
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing requestsPerSecond events with a
// burst of one. A non-positive rate disables limiting.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the rate limiter allows the next request
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Limit returns the current events-per-second limit.
func (rl *RateLimiter) Limit() rate.Limit {
	return rl.limiter.Limit()
}
