package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores audit entries.
type Repository interface {
	// Append validates rec and stores it as the newest link of the chain.
	Append(ctx context.Context, rec Record) (*Entry, error)

	// List returns up to limit entries, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*Entry, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
	now     func() time.Time
}

// NewInMemoryRepository creates a new in-memory audit repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{now: time.Now}
}

// Append stores rec after the current newest entry.
func (r *InMemoryRepository) Append(ctx context.Context, rec Record) (*Entry, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := ""
	if n := len(r.entries); n > 0 {
		prev = r.entries[n-1].Hash
	}
	e := newEntry(uuid.New().String(), rec, r.now(), prev)
	r.entries = append(r.entries, e)

	// Return a copy to prevent external modification
	out := *e
	return &out, nil
}

// List returns entries newest first.
func (r *InMemoryRepository) List(ctx context.Context, limit int) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*Entry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := *r.entries[i]
		results = append(results, &e)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}
