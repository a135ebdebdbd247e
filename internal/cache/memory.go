package cache

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/ignite/attribution-gateway/internal/domain"
)

// MemoryStore implements Store with an in-process map. Used when no Redis
// is configured, and by tests. Expired entries are dropped lazily on read
// and during invalidation.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	result    domain.AttributionResult
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory attribution cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(ctx context.Context, key Key) (*domain.AttributionResult, bool, error) {
	k := key.String()

	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have
		// replaced the entry.
		if cur, ok := s.entries[k]; ok && time.Now().After(cur.expiresAt) {
			delete(s.entries, k)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	res := e.result
	return &res, true, nil
}

func (s *MemoryStore) Put(ctx context.Context, key Key, res *domain.AttributionResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key.String()] = memoryEntry{result: *res, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, pattern string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := time.Now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of live entries. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
