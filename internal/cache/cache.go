// Package cache provides the key/value stores used for reference answers and
// embedding vectors.
package cache

import (
	"context"
	"sync"
)

// Store is a string cache shared by concurrent callers. Writes overwrite.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Memory is a bounded, mutex-guarded map that evicts the oldest key first.
// A capacity <= 0 means unbounded.
type Memory[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]V
	order    []string
}

func NewMemory[V any](capacity int) *Memory[V] {
	return &Memory[V]{
		capacity: capacity,
		items:    make(map[string]V),
	}
}

func (m *Memory[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.items[key]
	return v, ok
}

func (m *Memory[V]) Put(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; exists {
		m.items[key] = value
		return
	}

	if m.capacity > 0 {
		for len(m.order) >= m.capacity {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.items, oldest)
		}
	}

	m.items[key] = value
	m.order = append(m.order, key)
}

func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// MemoryStore adapts Memory[string] to Store.
type MemoryStore struct {
	mem *Memory[string]
}

func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{mem: NewMemory[string](capacity)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.mem.Get(key)
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mem.Put(key, value)
	return nil
}

func (s *MemoryStore) Len() int { return s.mem.Len() }
