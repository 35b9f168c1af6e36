package cache

import (
	"context"
	"sync"

	"github.com/estimate/backend/internal/domain/shared"
)

// InMemoryKeyValueStore implements KeyValueStore using a map.
// Nothing survives a restart; it backs tests and the "memory" driver.
type InMemoryKeyValueStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewInMemoryKeyValueStore creates an empty in-memory store
func NewInMemoryKeyValueStore() *InMemoryKeyValueStore {
	return &InMemoryKeyValueStore{
		entries: make(map[string]string),
	}
}

// Get returns the value stored under key
func (s *InMemoryKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	return v, ok, nil
}

// Set stores value under key
func (s *InMemoryKeyValueStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = value
	return nil
}

// Delete removes key
func (s *InMemoryKeyValueStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close is a no-op
func (s *InMemoryKeyValueStore) Close() error {
	return nil
}

// Ping always succeeds
func (s *InMemoryKeyValueStore) Ping(_ context.Context) error {
	return nil
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryKeyValueStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryKeyValueStore implements KeyValueStore
var _ shared.KeyValueStore = (*InMemoryKeyValueStore)(nil)
