package recommend

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/cropadvisor/internal/tracing"
)

// Recommendation outcomes.
var (
	// ErrNoMatch is returned when no crop matched any dimension of the sample.
	ErrNoMatch = errors.New("no matching crops found for the given soil parameters")

	// ErrUpstreamUnavailable is returned when the crop range dataset could not be fetched.
	ErrUpstreamUnavailable = errors.New("crop range dataset unavailable")
)

// RangeSource supplies the full crop range dataset.
type RangeSource interface {
	ListRanges(ctx context.Context) ([]CropRange, error)
}

// Recommender fetches the current range snapshot and scores samples against it.
type Recommender struct {
	source  RangeSource
	metrics *Metrics
}

// NewRecommender creates a Recommender. metrics may be nil.
func NewRecommender(source RangeSource, metrics *Metrics) *Recommender {
	return &Recommender{
		source:  source,
		metrics: metrics,
	}
}

// Recommend returns up to MaxResults crop names for the sample.
// It returns ErrUpstreamUnavailable (wrapping the cause) if the dataset cannot
// be loaded and ErrNoMatch if nothing scored above zero. Failures are not retried.
func (r *Recommender) Recommend(ctx context.Context, sample SoilSample) (names []string, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "recommend.score")
	defer func() { endSpan(err) }()

	ranges, err := r.source.ListRanges(ctx)
	if err != nil {
		r.observe(ctx, outcomeUpstreamError, 0, 0)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	ranked := Rank(sample, ranges)
	if len(ranked) == 0 {
		r.observe(ctx, outcomeNoMatch, len(ranges), 0)
		return nil, ErrNoMatch
	}
	r.observe(ctx, outcomeMatched, len(ranges), ranked[0].Score)

	names = make([]string, len(ranked))
	for i, c := range ranked {
		names[i] = c.CropName
	}
	return names, nil
}

func (r *Recommender) observe(ctx context.Context, outcome string, candidates, topScore int) {
	tracing.SetAttributes(ctx,
		attribute.String("recommend.outcome", outcome),
		attribute.Int("recommend.candidates", candidates),
		attribute.Int("recommend.top_score", topScore),
	)
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveRecommendation(outcome, candidates, topScore)
}
