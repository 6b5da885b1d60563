package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Storage in process memory. Used by tests and when
// no database path is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]map[string]string
	lastSeen map[string]time.Time
	now      func() time.Time
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string]map[string]string),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Get returns the value stored under key in scope.
func (m *MemoryStore) Get(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[scope][key]
	return v, ok, nil
}

// Set writes value under key in scope.
func (m *MemoryStore) Set(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[scope]; !ok {
		m.values[scope] = make(map[string]string)
	}
	m.values[scope][key] = value
	m.lastSeen[scope] = m.now()
	return nil
}

// Delete removes key from scope.
func (m *MemoryStore) Delete(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values[scope], key)
	return nil
}

// Touch records activity for scope.
func (m *MemoryStore) Touch(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSeen[scope] = m.now()
	return nil
}

// PurgeStale removes scopes idle longer than ttl.
func (m *MemoryStore) PurgeStale(_ context.Context, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-ttl)
	var purged int64
	for scope, seen := range m.lastSeen {
		if seen.Before(cutoff) {
			delete(m.lastSeen, scope)
			delete(m.values, scope)
			purged++
		}
	}
	return purged, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
