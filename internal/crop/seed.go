package crop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// UpsertCounts tallies one entity's seeding writes.
type UpsertCounts struct {
	Inserted int
	Updated  int
}

// Total returns inserts plus updates.
func (c UpsertCounts) Total() int {
	return c.Inserted + c.Updated
}

// SeedStats reports what Seed wrote.
type SeedStats struct {
	Ranges      UpsertCounts
	Fertilizers UpsertCounts
}

// LogSummary logs one line per entity at INFO level.
func (s SeedStats) LogSummary(logger *slog.Logger) {
	for _, e := range []struct {
		entity string
		counts UpsertCounts
	}{
		{"crop_ranges", s.Ranges},
		{"fertilizers", s.Fertilizers},
	} {
		logger.Info("seed statistics",
			"entity", e.entity,
			"inserted", e.counts.Inserted,
			"updated", e.counts.Updated,
			"total", e.counts.Total(),
		)
	}
}

// Seed loads the built-in dataset into repo. Existing crops are overwritten
// in place, so seeding twice is safe and keeps dataset order.
func Seed(ctx context.Context, repo Repository) (SeedStats, error) {
	var stats SeedStats

	existing, err := repo.ListRanges(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list existing ranges: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, r := range existing {
		known[r.CropName] = true
	}

	for _, r := range DefaultRanges() {
		if err := repo.UpsertRange(ctx, r); err != nil {
			return stats, err
		}
		if known[r.CropName] {
			stats.Ranges.Updated++
		} else {
			stats.Ranges.Inserted++
		}
	}

	for _, f := range DefaultFertilizers() {
		_, err := repo.GetFertilizer(ctx, f.CropName)
		switch {
		case errors.Is(err, ErrCropNotFound):
			stats.Fertilizers.Inserted++
		case err != nil:
			return stats, fmt.Errorf("failed to look up fertilizer %q: %w", f.CropName, err)
		default:
			stats.Fertilizers.Updated++
		}
		if err := repo.UpsertFertilizer(ctx, f); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
