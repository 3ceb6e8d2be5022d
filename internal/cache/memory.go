package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store guarded by a RWMutex.
type Memory[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
	now     func() time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now func() time.Time
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) {
		o.now = now
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory[V]{
		entries: make(map[string]Entry[V]),
		now:     o.now,
	}
}

// Get returns a fresh value. Expired entries are dropped.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if entry.Expired(m.now()) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have refreshed it.
		if current, ok := m.entries[key]; ok && current.Expired(m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return zero, false
	}
	return entry.Value, true
}

// Put stores value for ttl. A non-positive ttl stores nothing.
func (m *Memory[V]) Put(_ context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry[V]{
		Key:       key,
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// Invalidate removes a single key.
func (m *Memory[V]) Invalidate(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Clear removes every entry.
func (m *Memory[V]) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry[V])
}

// EvictExpired removes stale entries and returns how many were removed.
func (m *Memory[V]) EvictExpired(_ context.Context) int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for key, entry := range m.entries {
		if entry.Expired(now) {
			delete(m.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of entries, including ones not yet evicted.
func (m *Memory[V]) Len(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Entry returns the raw entry for key, expired or not.
func (m *Memory[V]) Entry(key string) (Entry[V], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}
