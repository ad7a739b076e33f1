package store

import (
	"context"
	"sync"

	"lottawords/internal/puzzle"
)

// MemoryStore keeps the entry in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	entry *puzzle.Entry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (*puzzle.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entry == nil {
		return nil, nil
	}
	cp := *s.entry
	return &cp, nil
}

func (s *MemoryStore) Set(ctx context.Context, e *puzzle.Entry) error {
	cp := *e
	s.mu.Lock()
	s.entry = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
