package resilience

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	MustRegisterMetrics("calc_test", prometheus.NewRegistry())
	os.Exit(m.Run())
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestBreaker(target string) (*Breaker, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker(BreakerConfig{Target: target, MinCalls: 2, FailureRatio: 0.5, OpenFor: time.Second})
	b.now = c.now
	return b, c
}

func TestBreakerTransitions(t *testing.T) {
	b, c := newTestBreaker("redis-transitions")
	ctx := context.Background()

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)

	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx), "breaker should reject while open")
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerState.WithLabelValues("redis-transitions")))

	c.t = c.t.Add(time.Second)
	require.True(t, b.Allow(ctx), "breaker should admit a trial call after cool off")
	require.Equal(t, HalfOpen, b.State())
	require.False(t, b.Allow(ctx), "only one trial call while half-open")

	b.Report(ctx, true)
	require.Equal(t, Closed, b.State())
	require.True(t, b.Allow(ctx))
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerTransitions.WithLabelValues("redis-transitions", "open", "half_open")))
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b, c := newTestBreaker("redis-half-open")
	ctx := context.Background()
	b.Report(ctx, false)
	b.Report(ctx, false)
	c.t = c.t.Add(2 * time.Second)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
}

func TestBreakerDo(t *testing.T) {
	b, _ := newTestBreaker("redis-do")
	ctx := context.Background()
	boom := errors.New("boom")

	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return boom }), boom)
	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return boom }), boom)

	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	require.ErrorIs(t, err, ErrOpenCircuit)
	require.False(t, called)
}

func TestNilBreakerAllows(t *testing.T) {
	var b *Breaker
	require.True(t, b.Allow(context.Background()))
	b.Report(context.Background(), false)
	require.NoError(t, b.Do(context.Background(), func(context.Context) error { return nil }))
}
