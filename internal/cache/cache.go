// Package cache provides the in-memory TTL store for resolved links,
// keyed by (tenant, category).
package cache

import (
	"sync"
	"time"
)

type key struct {
	tenantID string
	category string
}

type entry struct {
	value  string
	expiry time.Time
}

// Store maps (tenant, category) to an opaque string with an absolute
// expiry. Entries are never swept; a stale entry is ignored on read and
// overwritten on the next successful write.
type Store struct {
	mu      sync.RWMutex
	entries map[key]entry
	now     func() time.Time
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		entries: make(map[key]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for (tenantID, category). A value whose
// expiry has passed is never returned.
func (s *Store) Get(tenantID, category string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key{tenantID, category}]
	if !ok || !s.now().Before(e.expiry) {
		return "", false
	}
	return e.value, true
}

// Set overwrites the value for (tenantID, category) with the given TTL.
func (s *Store) Set(tenantID, category, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key{tenantID, category}] = entry{
		value:  value,
		expiry: s.now().Add(ttl),
	}
}

// Len reports the number of stored entries, expired ones included, for the
// status endpoint.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
