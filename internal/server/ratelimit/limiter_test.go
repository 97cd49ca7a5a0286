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

func TestInMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewInMemory(time.Minute)
	l.now = func() time.Time { return now }

	key := "login:a@x.io:127.0.0.1"

	first := l.Allow(ctx, key, 2)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	second := l.Allow(ctx, key, 2)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third := l.Allow(ctx, key, 2)
	assert.False(t, third.Allowed)
	assert.Equal(t, 3, third.Count)
	assert.Equal(t, time.Minute, third.RetryAfter(now))

	other := l.Allow(ctx, "login:b@x.io:127.0.0.1", 2)
	assert.True(t, other.Allowed)

	now = now.Add(time.Minute)
	reset := l.Allow(ctx, key, 2)
	assert.True(t, reset.Allowed)
	assert.Equal(t, 1, reset.Count)
}

func TestInMemoryLimiter_SweepsOncePerWindow(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	l := NewInMemory(time.Minute)
	l.now = func() time.Time { return now }

	l.Allow(ctx, "a", 5)
	now = start.Add(59 * time.Second)
	l.Allow(ctx, "x", 5)

	now = start.Add(60 * time.Second)
	l.Allow(ctx, "y", 5)
	assert.ElementsMatch(t, []string{"x", "y"}, keys(l))
	assert.Equal(t, now, l.lastSweep)

	// "x" expired at 119s but the last sweep is less than a window ago
	now = start.Add(119 * time.Second)
	l.Allow(ctx, "z", 5)
	assert.ElementsMatch(t, []string{"x", "y", "z"}, keys(l))

	now = start.Add(120 * time.Second)
	l.Allow(ctx, "w", 5)
	assert.ElementsMatch(t, []string{"z", "w"}, keys(l))

	// an expired key starts a fresh window even between sweeps
	now = start.Add(179 * time.Second)
	d := l.Allow(ctx, "z", 5)
	assert.Equal(t, 1, d.Count)
}

func keys(l *InMemoryLimiter) []string {
	out := make([]string, 0, len(l.items))
	for k := range l.items {
		out = append(out, k)
	}
	return out
}

func TestInMemoryLimiter_LimitFloor(t *testing.T) {
	d := NewInMemory(0).Allow(context.Background(), "k", 0)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Limit)
}

func TestDecision_RetryAfter(t *testing.T) {
	now := time.Now()
	assert.Equal(t, time.Second, Decision{ResetAt: now.Add(-time.Second)}.RetryAfter(now))
	assert.Equal(t, 3*time.Second, Decision{ResetAt: now.Add(2500 * time.Millisecond)}.RetryAfter(now))
}

func TestUnlimited(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.True(t, Unlimited{}.Allow(context.Background(), "k", 1).Allowed)
	}
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	l := NewRedis(client, time.Minute)

	assert.True(t, l.Allow(ctx, "k", 2).Allowed)
	assert.True(t, l.Allow(ctx, "k", 2).Allowed)
	blocked := l.Allow(ctx, "k", 2)
	assert.False(t, blocked.Allowed)
	assert.Equal(t, 3, blocked.Count)
	assert.True(t, blocked.ResetAt.After(time.Now()))

	assert.True(t, mr.Exists("rl:k"))

	mr.FastForward(2 * time.Minute)
	assert.True(t, l.Allow(ctx, "k", 2).Allowed)
}

func TestRedisLimiter_FallsBackWhenDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	l := NewRedis(client, time.Minute)
	l.timeout = 200 * time.Millisecond

	ctx := context.Background()
	require.True(t, l.Allow(ctx, "k", 1).Allowed)
	assert.False(t, l.Allow(ctx, "k", 1).Allowed)
}
