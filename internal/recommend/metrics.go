package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRecommendationsTotal     = "crop_recommendations_total"
	MetricRecommendationCandidates = "crop_recommendation_candidates"
	MetricRecommendationTopScore   = "crop_recommendation_top_score"
)

// Outcome label values for MetricRecommendationsTotal.
const (
	outcomeMatched       = "matched"
	outcomeNoMatch       = "no_match"
	outcomeUpstreamError = "upstream_error"
)

// Metrics contains Prometheus metrics for recommendation passes.
// All operations are thread-safe.
type Metrics struct {
	recommendationsTotal *prometheus.CounterVec
	candidates           prometheus.Histogram
	topScore             prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		recommendationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRecommendationsTotal,
				Help: "Total number of crop recommendation requests by outcome",
			},
			[]string{"outcome"},
		),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRecommendationCandidates,
			Help:    "Number of crop ranges evaluated per recommendation",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
		}),
		topScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRecommendationTopScore,
			Help:    "Score of the best matching crop per successful recommendation",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRecommendation records one recommendation pass.
// topScore is ignored unless the outcome is a match.
func (m *Metrics) ObserveRecommendation(outcome string, candidates, topScore int) {
	m.recommendationsTotal.WithLabelValues(outcome).Inc()
	if outcome == outcomeUpstreamError {
		return
	}
	m.candidates.Observe(float64(candidates))
	if outcome == outcomeMatched {
		m.topScore.Observe(float64(topScore))
	}
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.recommendationsTotal,
		m.candidates,
		m.topScore,
	}
}
