package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter meters requests per owner.
type RateLimiter interface {
	Allow(ctx context.Context, owner string) error
}

// InProcessLimiter is a fixed-window limiter keeping one counter per owner
// in memory.
type InProcessLimiter struct {
	rpm      int
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

type counter struct {
	count    int
	windowAt time.Time
}

// NewInProcessLimiter allows rpm requests per owner per minute. rpm <= 0 disables limiting.
func NewInProcessLimiter(rpm int) *InProcessLimiter {
	return &InProcessLimiter{
		rpm:      rpm,
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Allow counts one request for owner and fails with ErrTooManyRequests once
// the current window is used up.
func (l *InProcessLimiter) Allow(_ context.Context, owner string) error {
	if l.rpm <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[owner]
	if !ok || now.Sub(c.windowAt) >= time.Minute {
		l.counters[owner] = &counter{count: 1, windowAt: now}
		return nil
	}

	c.count++
	if c.count > l.rpm {
		return ErrTooManyRequests
	}

	return nil
}
