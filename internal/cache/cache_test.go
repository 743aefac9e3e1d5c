package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryEvictsOldestFirst(t *testing.T) {
	t.Parallel()

	m := NewMemory[int](2)
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("a", 10)
	m.Put("c", 3)

	if _, ok := m.Get("a"); ok {
		t.Fatalf("expected oldest key to be evicted")
	}
	if v, ok := m.Get("b"); !ok || v != 2 {
		t.Fatalf("expected b=2, got %v %v", v, ok)
	}
	if v, ok := m.Get("c"); !ok || v != 3 {
		t.Fatalf("expected c=3, got %v %v", v, ok)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", m.Len())
	}
}

func TestMemoryUnbounded(t *testing.T) {
	t.Parallel()

	m := NewMemory[string](0)
	for i := 0; i < 100; i++ {
		m.Put(fmt.Sprint(i), "v")
	}
	if m.Len() != 100 {
		t.Fatalf("expected 100 items, got %d", m.Len())
	}
}

func TestMemoryStoreConcurrentWrites(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(8)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Set(ctx, fmt.Sprint(i%4), "answer")
		}(i)
	}
	wg.Wait()

	if s.Len() != 4 {
		t.Fatalf("expected 4 keys, got %d", s.Len())
	}
	v, ok, err := s.Get(ctx, "3")
	if err != nil || !ok || v != "answer" {
		t.Fatalf("unexpected lookup: %q %v %v", v, ok, err)
	}
}
