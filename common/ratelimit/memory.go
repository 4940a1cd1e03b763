package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is the single-process fixed window limiter used without Redis
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
	logger  Logger
}

type window struct {
	count   int64
	resetAt time.Time
}

// NewMemoryLimiter creates an in-process limiter
func NewMemoryLimiter(logger Logger) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
		logger:  logger,
	}
}

// Check counts one hit against key
func (m *MemoryLimiter) Check(ctx context.Context, key string, limit int64, windowSec int) (*RateLimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(time.Duration(windowSec) * time.Second)}
		m.windows[key] = w
		m.sweep(now)
	}
	w.count++

	res := &RateLimitResult{
		Allowed:      w.count <= limit,
		CurrentCount: w.count,
		Limit:        limit,
	}
	if !res.Allowed {
		res.RetryAfterSeconds = int64(w.resetAt.Sub(now).Round(time.Second) / time.Second)
	}
	logResult(m.logger, key, res)
	return res, nil
}

// sweep drops expired windows; caller holds mu
func (m *MemoryLimiter) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
