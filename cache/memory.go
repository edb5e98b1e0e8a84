package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Expired entries are dropped lazily on
// access. It is intended for tests and single-process deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Read returns the value at key.
func (s *MemoryStore) Read(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if entry.expired(s.now()) {
		s.evict(key, entry)
		return nil, false, nil
	}
	return bytes.Clone(entry.value), true, nil
}

// ReadMany returns values for the keys that are present.
func (s *MemoryStore) ReadMany(_ context.Context, keys []string) (map[string][]byte, error) {
	now := s.now()
	out := make(map[string][]byte, len(keys))
	var stale []string

	s.mu.RLock()
	for _, key := range keys {
		entry, ok := s.entries[key]
		if !ok {
			continue
		}
		if entry.expired(now) {
			stale = append(stale, key)
			continue
		}
		out[key] = bytes.Clone(entry.value)
	}
	s.mu.RUnlock()

	if len(stale) > 0 {
		s.mu.Lock()
		for _, key := range stale {
			if entry, ok := s.entries[key]; ok && entry.expired(now) {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
	return out, nil
}

// Write stores value at key. A non-positive TTL means no expiry.
func (s *MemoryStore) Write(_ context.Context, key string, value []byte, d Directives) error {
	entry := memoryEntry{value: bytes.Clone(value)}
	if d.TTL > 0 {
		entry.expiresAt = s.now().Add(d.TTL)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Exists reports whether key holds an unexpired value.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Read(ctx, key)
	return ok, err
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) evict(key string, seen memoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(seen.expiresAt) {
		delete(s.entries, key)
	}
}

var _ Store = (*MemoryStore)(nil)
