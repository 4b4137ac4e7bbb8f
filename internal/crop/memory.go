package crop

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/onnwee/cropadvisor/internal/recommend"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Thread-safe via RWMutex. Reads return copies.
type InMemoryRepository struct {
	mu          sync.RWMutex
	ranges      []recommend.CropRange
	index       map[string]int // crop name -> position in ranges
	fertilizers map[string]Fertilizer
}

// NewInMemoryRepository creates an empty in-memory crop repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		index:       make(map[string]int),
		fertilizers: make(map[string]Fertilizer),
	}
}

// NewSeededInMemoryRepository creates an in-memory repository holding the
// built-in dataset.
func NewSeededInMemoryRepository() *InMemoryRepository {
	repo := NewInMemoryRepository()
	for _, r := range DefaultRanges() {
		repo.putRange(r)
	}
	for _, f := range DefaultFertilizers() {
		repo.fertilizers[f.CropName] = *f
	}
	return repo
}

// ListRanges returns a copy of all ranges in insertion order.
func (r *InMemoryRepository) ListRanges(ctx context.Context) ([]recommend.CropRange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.ranges), nil
}

// GetFertilizer returns the guidance for cropName.
func (r *InMemoryRepository) GetFertilizer(ctx context.Context, cropName string) (*Fertilizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.fertilizers[strings.TrimSpace(cropName)]
	if !ok {
		return nil, ErrCropNotFound
	}
	return &f, nil
}

// UpsertRange inserts or replaces a crop range.
func (r *InMemoryRepository) UpsertRange(ctx context.Context, cr recommend.CropRange) error {
	if strings.TrimSpace(cr.CropName) == "" {
		return ErrInvalidCropName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.putRange(cr)
	return nil
}

// putRange must be called with mu held (or before the repository is shared).
func (r *InMemoryRepository) putRange(cr recommend.CropRange) {
	if i, ok := r.index[cr.CropName]; ok {
		r.ranges[i] = cr
		return
	}
	r.index[cr.CropName] = len(r.ranges)
	r.ranges = append(r.ranges, cr)
}

// UpsertFertilizer inserts or replaces fertilizer guidance.
func (r *InMemoryRepository) UpsertFertilizer(ctx context.Context, f *Fertilizer) error {
	if f == nil || strings.TrimSpace(f.CropName) == "" {
		return ErrInvalidCropName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.fertilizers[f.CropName] = *f
	return nil
}
