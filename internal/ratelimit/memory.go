package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryCounter struct {
	count   int
	resetAt time.Time
}

type memoryLimiter struct {
	mu       sync.Mutex
	counters map[string]memoryCounter
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewMemoryLimiter is the dependency-free limiter for tests and dev runs.
func NewMemoryLimiter(limit int, window time.Duration) Limiter {
	return &memoryLimiter{
		counters: make(map[string]memoryCounter),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[key]
	if !ok || now.After(c.resetAt) {
		c = memoryCounter{count: 0, resetAt: now.Add(l.window)}
	}
	c.count++
	l.counters[key] = c

	if c.count > l.limit {
		return &LimitError{Key: key, Limit: l.limit, Window: l.window}
	}
	return nil
}
