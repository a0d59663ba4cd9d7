package cache

import (
	"context"
	"sync"
	"time"
)

// Memo caches a single computed value with a TTL. Concurrent callers share
// one in-flight computation instead of recomputing in parallel. It backs
// endpoints that aggregate across tables on every request, where serving a
// slightly stale snapshot is acceptable.
type Memo[T any] struct {
	mu        sync.Mutex
	ttl       time.Duration
	value     T
	expiresAt time.Time
}

// NewMemo creates a memo cache with the given TTL
func NewMemo[T any](ttl time.Duration) *Memo[T] {
	return &Memo[T]{ttl: ttl}
}

// Get returns the cached value, or computes and caches a fresh one when the
// entry is missing or expired. A failed load is not cached.
func (m *Memo[T]) Get(ctx context.Context, load func(ctx context.Context) (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Now().Before(m.expiresAt) {
		return m.value, nil
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	m.value = value
	m.expiresAt = time.Now().Add(m.ttl)
	return value, nil
}

// Invalidate drops the cached value so the next Get recomputes
func (m *Memo[T]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiresAt = time.Time{}
}
