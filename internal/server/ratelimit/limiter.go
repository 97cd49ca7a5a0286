// Package ratelimit counts attempts per key in fixed windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the wait until the window resets, rounded up to a second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	return (wait + time.Second - 1).Truncate(time.Second)
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int) Decision
}

// InMemoryLimiter is a per-process fixed-window counter.
type InMemoryLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	items     map[string]window
	lastSweep time.Time
	now       func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewInMemory(w time.Duration) *InMemoryLimiter {
	if w <= 0 {
		w = time.Minute
	}
	return &InMemoryLimiter{window: w, items: make(map[string]window), now: time.Now}
}

func (l *InMemoryLimiter) Allow(_ context.Context, key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	now := l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	cur, ok := l.items[key]
	if !ok || !now.Before(cur.resetAt) {
		cur = window{resetAt: now.Add(l.window)}
	}
	cur.count++
	l.items[key] = cur

	return decide(cur.count, limit, cur.resetAt)
}

// sweep drops expired windows, at most once per window length.
func (l *InMemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for k, v := range l.items {
		if !now.Before(v.resetAt) {
			delete(l.items, k)
		}
	}
}

func decide(count, limit int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit,
		Count:     count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// Unlimited lets everything through.
type Unlimited struct{}

func (Unlimited) Allow(_ context.Context, _ string, limit int) Decision {
	return Decision{Allowed: true, Limit: limit, Remaining: limit}
}
