// Package crop stores the crop range dataset consumed by the recommender and
// the per-crop fertilizer guidance served alongside it.
package crop

import (
	"context"
	"errors"

	"github.com/onnwee/cropadvisor/internal/recommend"
)

// Common errors for crop store operations.
var (
	ErrCropNotFound    = errors.New("crop not found")
	ErrInvalidCropName = errors.New("crop name is required")
)

// Fertilizer is the fertilizer and soil guidance recorded for one crop.
type Fertilizer struct {
	CropName              string `json:"crop_name"`
	Fertilizer            string `json:"fertilizer"`
	Soil                  string `json:"soil"`
	IdealPH               string `json:"ideal_ph"`
	IdealHumidity         string `json:"ideal_humidity"`
	NaturalFertilizerTips string `json:"natural_fertilizer_tips"`
}

// Repository defines the crop data operations.
// ListRanges satisfies recommend.RangeSource.
type Repository interface {
	// ListRanges returns every crop range in dataset order.
	ListRanges(ctx context.Context) ([]recommend.CropRange, error)

	// GetFertilizer returns the guidance for cropName or ErrCropNotFound.
	GetFertilizer(ctx context.Context, cropName string) (*Fertilizer, error)

	// UpsertRange inserts or replaces the range for r.CropName.
	// New crops are appended to the end of the dataset order.
	UpsertRange(ctx context.Context, r recommend.CropRange) error

	// UpsertFertilizer inserts or replaces the guidance for f.CropName.
	UpsertFertilizer(ctx context.Context, f *Fertilizer) error
}
