package ratelimit

import (
	"context"
	"time"

	"github.com/noah-isme/calculadora/internal/resilience"
)

// Guarded routes calls to Primary while its breaker is closed and to Fallback otherwise.
type Guarded struct {
	Primary  Limiter
	Fallback Limiter
	Breaker  *resilience.Breaker
}

// Allow implements Limiter.
func (g Guarded) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if g.Breaker.Allow(ctx) {
		allowed, remaining, reset, err := g.Primary.Allow(ctx, key, window, max)
		g.Breaker.Report(ctx, err == nil)
		if err == nil || g.Fallback == nil {
			return allowed, remaining, reset, err
		}
	}
	if g.Fallback == nil {
		return true, max, time.Now().Add(window), nil
	}
	return g.Fallback.Allow(ctx, key, window, max)
}
