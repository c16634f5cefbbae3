package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var authRule = Rule{Name: "auth", Max: 3, Window: time.Minute}

func exhaust(t *testing.T, l Limiter, rule Rule, client string) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= rule.Max; i++ {
		res, err := l.Allow(ctx, rule, client)
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, rule.Max-i, res.Remaining)
		assert.Equal(t, rule.Max, res.Limit)
	}
	res, err := l.Allow(ctx, rule, client)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.True(t, res.Reset.After(time.Now()))
}

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter()
	now := time.Now()
	l.now = func() time.Time { return now }

	exhaust(t, l, authRule, "10.0.0.1")

	// other clients and other limiters have their own counters
	res, err := l.Allow(ctx, authRule, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	res, err = l.Allow(ctx, Rule{Name: "general", Max: 1, Window: time.Minute}, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	now = now.Add(time.Minute)
	res, err = l.Allow(ctx, authRule, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestMemoryLimiterSweepKeepsLongWindows(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter()
	now := time.Now()
	l.now = func() time.Time { return now }
	hourly := Rule{Name: "orders", Max: 1, Window: time.Hour}

	_, err := l.Allow(ctx, hourly, "c")
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)
	_, err = l.Allow(ctx, authRule, "c")
	require.NoError(t, err)

	res, err := l.Allow(ctx, hourly, "c")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l := NewRedisLimiter(client)

	exhaust(t, l, authRule, "10.0.0.1")
	assert.True(t, mr.Exists("ratelimit:auth:10.0.0.1"))

	mr.FastForward(time.Minute + time.Second)
	res, err := l.Allow(context.Background(), authRule, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisLimiterReportsOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisLimiter(client).Allow(context.Background(), authRule, "x")
	assert.Error(t, err)
}
