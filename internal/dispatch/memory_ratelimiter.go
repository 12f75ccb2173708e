package dispatch

import (
	"context"
	"sync"
	"time"
)

type rateWindow struct {
	start time.Time
	count int
}

// InMemoryRateLimiter is an in-memory implementation of RateLimiter
// for testing and local development.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	config  RateConfig
	now     func() time.Time
}

// NewInMemoryRateLimiter creates a new in-memory rate limiter.
func NewInMemoryRateLimiter(cfg RateConfig) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		windows: make(map[string]*rateWindow),
		config:  cfg,
		now:     time.Now,
	}
}

// SetClock overrides the limiter's clock. Used in tests.
func (l *InMemoryRateLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Allow records a dispatch attempt and reports whether it is within the
// limit.
func (l *InMemoryRateLimiter) Allow(_ context.Context, accountID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[accountID]
	if !ok || now.Sub(w.start) >= l.config.Window {
		l.windows[accountID] = &rateWindow{start: now, count: 1}
		return true, nil
	}

	if w.count >= l.config.Limit {
		return false, nil
	}

	w.count++
	return true, nil
}

// DeleteExpired removes windows closed more than sweepRetention ago.
func (l *InMemoryRateLimiter) DeleteExpired(_ context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var removed int64
	for id, w := range l.windows {
		if now.Sub(w.start) >= l.config.Window+sweepRetention {
			delete(l.windows, id)
			removed++
		}
	}
	return removed, nil
}

// Ensure InMemoryRateLimiter implements RateLimiter interface.
var _ RateLimiter = (*InMemoryRateLimiter)(nil)
