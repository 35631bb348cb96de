package memory

import (
	"context"
	"sync"
	"time"

	"github.com/relai/server/internal/port/outbound"
)

// RateLimiter is an in-process sliding window limiter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates an in-process rate limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{windows: make(map[string][]time.Time), now: time.Now}
}

// Allow records a request for key if it fits in the window.
func (l *RateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	hits := l.prune(key, now.Add(-window))
	if len(hits) >= limit {
		return false, nil
	}
	l.windows[key] = append(hits, now)
	return true, nil
}

// GetRemaining returns how many requests key may still make in the window.
func (l *RateLimiter) GetRemaining(_ context.Context, key string, limit int, window time.Duration) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := limit - len(l.prune(key, l.now().Add(-window)))
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// prune drops hits at or before cutoff. Callers hold l.mu.
func (l *RateLimiter) prune(key string, cutoff time.Time) []time.Time {
	hits := l.windows[key]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]
	if len(hits) == 0 {
		delete(l.windows, key)
		return nil
	}
	l.windows[key] = hits
	return hits
}

// Compile-time check
var _ outbound.RateLimiterPort = (*RateLimiter)(nil)
