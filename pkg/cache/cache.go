// Package cache provides fixed-window counters shared by the rate limiter.
//
// RedisCounter keeps windows in Redis so replicas agree on a client's count.
// MemoryCounter is the single-process fallback used when Redis is not
// configured or not reachable at boot.
package cache

import (
	"context"
	"sync"
	"time"
)

// Counter increments key and returns the count within the current window.
// The window starts at the first increment and lasts for window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type entry struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter is an in-process Counter. Expired windows are swept every
// sweepEvery increments so idle keys do not accumulate.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*entry
	calls   int
	now     func() time.Time
}

const sweepEvery = 1024

// NewMemoryCounter returns an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{entries: make(map[string]*entry), now: time.Now}
}

func (m *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	m.calls++
	if m.calls%sweepEvery == 0 {
		for k, e := range m.entries {
			if !now.Before(e.resetAt) {
				delete(m.entries, k)
			}
		}
	}

	e, ok := m.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{resetAt: now.Add(window)}
		m.entries[key] = e
	}
	e.count++
	return e.count, nil
}

// Len reports the number of tracked keys.
func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
