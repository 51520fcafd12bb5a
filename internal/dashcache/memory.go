package dashcache

import (
	"context"
	"sync"

	"github.com/xxxsen/civiclens/internal/model"
)

// MemoryStore keeps entries in process memory. Entries are never evicted;
// staleness is decided by the Cache at read time.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]model.CacheEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]model.CacheEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*model.CacheEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (s *MemoryStore) Set(_ context.Context, entry *model.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Key] = *entry
	return nil
}
