package crop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/onnwee/cropadvisor/internal/recommend"
	"github.com/onnwee/cropadvisor/internal/tracing"
)

const (
	cropDataTable   = "crop_data"
	fertilizerTable = "fertilizer_recommendation"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListRanges returns every row of crop_data ordered by insertion id.
func (r *PostgresRepository) ListRanges(ctx context.Context) (ranges []recommend.CropRange, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, cropDataTable, tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `
		SELECT crop_name,
		       min_nitrogen, max_nitrogen,
		       min_phosphorus, max_phosphorus,
		       min_potassium, max_potassium,
		       min_ph, max_ph,
		       min_humidity, max_humidity,
		       min_temperature, max_temperature
		FROM crop_data
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list crop ranges: %w", err)
	}
	defer rows.Close()

	ranges = make([]recommend.CropRange, 0)
	for rows.Next() {
		var cr recommend.CropRange
		err := rows.Scan(
			&cr.CropName,
			&cr.Nitrogen.Min, &cr.Nitrogen.Max,
			&cr.Phosphorus.Min, &cr.Phosphorus.Max,
			&cr.Potassium.Min, &cr.Potassium.Max,
			&cr.PH.Min, &cr.PH.Max,
			&cr.Humidity.Min, &cr.Humidity.Max,
			&cr.Temperature.Min, &cr.Temperature.Max,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crop range: %w", err)
		}
		ranges = append(ranges, cr)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crop ranges: %w", err)
	}

	return ranges, nil
}

// GetFertilizer returns the fertilizer_recommendation row for cropName.
func (r *PostgresRepository) GetFertilizer(ctx context.Context, cropName string) (f *Fertilizer, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, fertilizerTable, tracing.DBOperationQuery)
	defer func() {
		if errors.Is(err, ErrCropNotFound) {
			endSpan(nil)
			return
		}
		endSpan(err)
	}()

	query := `
		SELECT crop_name, fertilizer, soil, ideal_ph, ideal_humidity, natural_fertilizer_tips
		FROM fertilizer_recommendation
		WHERE crop_name = $1
	`

	f = &Fertilizer{}
	err = r.db.QueryRowContext(ctx, query, strings.TrimSpace(cropName)).Scan(
		&f.CropName,
		&f.Fertilizer,
		&f.Soil,
		&f.IdealPH,
		&f.IdealHumidity,
		&f.NaturalFertilizerTips,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCropNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fertilizer guidance: %w", err)
	}

	return f, nil
}

// UpsertRange inserts a crop range or updates the bounds of an existing one.
// The row id, and therefore the dataset position, is kept on update.
func (r *PostgresRepository) UpsertRange(ctx context.Context, cr recommend.CropRange) (err error) {
	if strings.TrimSpace(cr.CropName) == "" {
		return ErrInvalidCropName
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, cropDataTable, tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	query := `
		INSERT INTO crop_data (
			crop_name,
			min_nitrogen, max_nitrogen,
			min_phosphorus, max_phosphorus,
			min_potassium, max_potassium,
			min_ph, max_ph,
			min_humidity, max_humidity,
			min_temperature, max_temperature
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (crop_name) DO UPDATE SET
			min_nitrogen = EXCLUDED.min_nitrogen, max_nitrogen = EXCLUDED.max_nitrogen,
			min_phosphorus = EXCLUDED.min_phosphorus, max_phosphorus = EXCLUDED.max_phosphorus,
			min_potassium = EXCLUDED.min_potassium, max_potassium = EXCLUDED.max_potassium,
			min_ph = EXCLUDED.min_ph, max_ph = EXCLUDED.max_ph,
			min_humidity = EXCLUDED.min_humidity, max_humidity = EXCLUDED.max_humidity,
			min_temperature = EXCLUDED.min_temperature, max_temperature = EXCLUDED.max_temperature
	`

	_, err = r.db.ExecContext(ctx, query,
		cr.CropName,
		cr.Nitrogen.Min, cr.Nitrogen.Max,
		cr.Phosphorus.Min, cr.Phosphorus.Max,
		cr.Potassium.Min, cr.Potassium.Max,
		cr.PH.Min, cr.PH.Max,
		cr.Humidity.Min, cr.Humidity.Max,
		cr.Temperature.Min, cr.Temperature.Max,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert crop range: %w", err)
	}
	return nil
}

// UpsertFertilizer inserts or replaces fertilizer guidance for a crop.
func (r *PostgresRepository) UpsertFertilizer(ctx context.Context, f *Fertilizer) (err error) {
	if f == nil || strings.TrimSpace(f.CropName) == "" {
		return ErrInvalidCropName
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, fertilizerTable, tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	query := `
		INSERT INTO fertilizer_recommendation (
			crop_name, fertilizer, soil, ideal_ph, ideal_humidity, natural_fertilizer_tips
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (crop_name) DO UPDATE SET
			fertilizer = EXCLUDED.fertilizer,
			soil = EXCLUDED.soil,
			ideal_ph = EXCLUDED.ideal_ph,
			ideal_humidity = EXCLUDED.ideal_humidity,
			natural_fertilizer_tips = EXCLUDED.natural_fertilizer_tips
	`

	_, err = r.db.ExecContext(ctx, query,
		f.CropName, f.Fertilizer, f.Soil, f.IdealPH, f.IdealHumidity, f.NaturalFertilizerTips,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fertilizer guidance: %w", err)
	}
	return nil
}
