package session

import (
	"context"
	"sync"
)

// MemoryStore keeps flags in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]struct{}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]struct{})}
}

func (m *MemoryStore) Get(_ context.Context, contentID string, flag Flag) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.flags[Key(flag, contentID)]
	return ok, nil
}

func (m *MemoryStore) Set(_ context.Context, contentID string, flag Flag) error {
	m.mu.Lock()
	m.flags[Key(flag, contentID)] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Reset(_ context.Context) error {
	m.mu.Lock()
	m.flags = make(map[string]struct{})
	m.mu.Unlock()
	return nil
}
