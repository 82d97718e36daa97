package registry

import (
	"context"
	"sync"

	"imgres/asset"
)

// MemoryStore keeps entries in memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	scopes map[string][]asset.Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string][]asset.Entry)}
}

func (s *MemoryStore) ReadAssets(ctx context.Context, scope asset.Scope) ([]asset.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.scopes[scope.Key()]), nil
}

func (s *MemoryStore) WriteAssets(ctx context.Context, scope asset.Scope, entries []asset.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[scope.Key()] = cloneEntries(entries)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
