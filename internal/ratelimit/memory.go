package ratelimit

import (
	"context"
	"fmt"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Memory is a fixed window limiter kept in process memory. It serves deployments without Redis.
type Memory struct {
	store limiter.Store
}

// NewMemory returns a limiter with its own in-memory store.
func NewMemory(prefix string) *Memory {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Memory{store: memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: time.Minute,
	})}
}

// Allow counts one event for key within the current window.
func (m *Memory) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if m == nil || m.store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lim := limiter.New(m.store, limiter.Rate{Period: window, Limit: int64(max)})
	res, err := lim.Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), fmt.Errorf("memory limiter %s: %w", key, err)
	}
	return !res.Reached, int(res.Remaining), time.Unix(res.Reset, 0), nil
}
