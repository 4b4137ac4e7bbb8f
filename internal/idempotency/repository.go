package idempotency

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore implements Store with a map. Used when Redis is not configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Get returns a copy of the stored record.
func (s *InMemoryStore) Get(ctx context.Context, storageKey string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[storageKey]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return &rec, nil
}

// Put stores a copy of rec, stamping CreatedAt when unset.
func (s *InMemoryStore) Put(ctx context.Context, rec *Record) error {
	if err := ValidateKey(rec.Key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := StorageKey(rec.Route, rec.Key)
	if _, exists := s.records[k]; exists {
		return ErrKeyExists
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.records[k] = *rec
	return nil
}

// DeleteOlderThan removes records created before now-age.
func (s *InMemoryStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-age)
	var deleted int64
	for k, rec := range s.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.records, k)
			deleted++
		}
	}
	return deleted, nil
}
