package correlate

import (
	"sync"
	"time"
)

type entry struct {
	target     Target
	recordedAt time.Time
}

// MemoryStore is the default in-process Store. Mappings do not survive a
// restart; results arriving for jobs submitted before a restart are lost,
// which is the documented failure mode of the in-memory design. Use the
// SQLite-backed store for durability.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is overridable for tests.
	now func() time.Time
}

// Compile-time interface guards.
var (
	_ Store   = (*MemoryStore)(nil)
	_ Sweeper = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Record implements Store.
func (s *MemoryStore) Record(key string, target Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; exists {
		return ErrDuplicateKey
	}
	s.entries[key] = entry{target: target, recordedAt: s.now()}
	return nil
}

// Claim implements Store. Removal and return happen under one lock
// acquisition, so concurrent claimants on the same key see exactly one
// success.
func (s *MemoryStore) Claim(key string) (Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	if !exists {
		return Target{}, ErrNotFound
	}
	delete(s.entries, key)
	return e.target, nil
}

// Pending implements Store.
func (s *MemoryStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep implements Sweeper. Entries older than maxAge are dropped so that
// jobs whose callbacks never arrive do not leak memory.
func (s *MemoryStore) Sweep(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for key, e := range s.entries {
		if e.recordedAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
