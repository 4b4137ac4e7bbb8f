package crop

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onnwee/cropadvisor/internal/recommend"
)

// RangesCacheKey is the Redis key holding the JSON range snapshot.
const RangesCacheKey = "cropadvisor:crop_ranges:v1"

// DefaultRangesCacheTTL is used when NewCachedRepository is given a non-positive TTL.
const DefaultRangesCacheTTL = 5 * time.Minute

// CachedRepository keeps a snapshot of the range dataset in Redis.
// Cache failures are logged and fall through to the inner repository; they
// never reach the caller. Fertilizer reads are not cached.
type CachedRepository struct {
	inner  Repository
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps inner with a Redis snapshot cache.
func NewCachedRepository(inner Repository, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultRangesCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// ListRanges serves the cached snapshot when present, otherwise loads from the
// inner repository and refreshes the cache.
func (c *CachedRepository) ListRanges(ctx context.Context) ([]recommend.CropRange, error) {
	data, err := c.client.Get(ctx, RangesCacheKey).Bytes()
	switch {
	case err == nil:
		var ranges []recommend.CropRange
		jsonErr := json.Unmarshal(data, &ranges)
		if jsonErr == nil {
			return ranges, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt crop range snapshot", "error", jsonErr)
	case errors.Is(err, redis.Nil):
		// miss
	default:
		c.logger.WarnContext(ctx, "crop range cache read failed", "error", err)
	}

	ranges, err := c.inner.ListRanges(ctx)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(ranges)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to encode crop range snapshot", "error", err)
		return ranges, nil
	}
	if err := c.client.Set(ctx, RangesCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "crop range cache write failed", "error", err)
	}
	return ranges, nil
}

// GetFertilizer delegates to the inner repository.
func (c *CachedRepository) GetFertilizer(ctx context.Context, cropName string) (*Fertilizer, error) {
	return c.inner.GetFertilizer(ctx, cropName)
}

// UpsertRange writes through and invalidates the snapshot.
func (c *CachedRepository) UpsertRange(ctx context.Context, r recommend.CropRange) error {
	if err := c.inner.UpsertRange(ctx, r); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

// UpsertFertilizer delegates to the inner repository.
func (c *CachedRepository) UpsertFertilizer(ctx context.Context, f *Fertilizer) error {
	return c.inner.UpsertFertilizer(ctx, f)
}

// Invalidate drops the cached snapshot.
func (c *CachedRepository) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, RangesCacheKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "crop range cache invalidation failed", "error", err)
	}
}
