package revealed

import (
	"context"
	"sync"
)

// MemoryRepository keeps namespaces for the life of the process.
type MemoryRepository struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sets: make(map[string]map[string]struct{})}
}

func (r *MemoryRepository) ReadNamespace(_ context.Context, key string) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.sets[key]), nil
}

func (r *MemoryRepository) WriteNamespace(_ context.Context, key string, ids map[string]struct{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[key] = clone(ids)
	return nil
}

func clone(ids map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for id := range ids {
		out[id] = struct{}{}
	}
	return out
}
