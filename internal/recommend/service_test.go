package recommend

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type stubSource struct {
	ranges []CropRange
	err    error
	calls  int
}

func (s *stubSource) ListRanges(ctx context.Context) ([]CropRange, error) {
	s.calls++
	return s.ranges, s.err
}

func counterValue(t *testing.T, m *Metrics, outcome string) float64 {
	t.Helper()
	var metric dto.Metric
	if err := m.recommendationsTotal.WithLabelValues(outcome).Write(&metric); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var metric dto.Metric
	if err := h.(prometheus.Metric).Write(&metric); err != nil {
		t.Fatalf("failed to read histogram: %v", err)
	}
	return metric.GetHistogram().GetSampleCount()
}

func TestRecommender_Recommend_Matched(t *testing.T) {
	src := &stubSource{ranges: []CropRange{
		cropMatching("chickpea", 2),
		cropMatching("rice", 6),
	}}
	metrics := NewMetrics()
	r := NewRecommender(src, metrics)

	got, err := r.Recommend(context.Background(), sample)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if want := []string{"rice", "chickpea"}; !slices.Equal(got, want) {
		t.Errorf("Recommend() = %v, want %v", got, want)
	}
	if v := counterValue(t, metrics, outcomeMatched); v != 1 {
		t.Errorf("matched counter = %v, want 1", v)
	}
	if n := histogramCount(t, metrics.topScore); n != 1 {
		t.Errorf("top score observations = %d, want 1", n)
	}
}

func TestRecommender_Recommend_NoMatch(t *testing.T) {
	src := &stubSource{ranges: []CropRange{cropMatching("coffee", 0)}}
	metrics := NewMetrics()
	r := NewRecommender(src, metrics)

	got, err := r.Recommend(context.Background(), sample)
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("Recommend() error = %v, want ErrNoMatch", err)
	}
	if got != nil {
		t.Errorf("Recommend() = %v, want nil", got)
	}
	if v := counterValue(t, metrics, outcomeNoMatch); v != 1 {
		t.Errorf("no_match counter = %v, want 1", v)
	}
	if n := histogramCount(t, metrics.topScore); n != 0 {
		t.Errorf("top score observations = %d, want 0", n)
	}
}

func TestRecommender_Recommend_EmptyDataset(t *testing.T) {
	r := NewRecommender(&stubSource{}, nil)

	if _, err := r.Recommend(context.Background(), sample); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Recommend() error = %v, want ErrNoMatch", err)
	}
}

func TestRecommender_Recommend_UpstreamError(t *testing.T) {
	cause := errors.New("connection refused")
	src := &stubSource{err: cause}
	metrics := NewMetrics()
	r := NewRecommender(src, metrics)

	_, err := r.Recommend(context.Background(), sample)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("Recommend() error = %v, want ErrUpstreamUnavailable", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Recommend() error does not wrap cause: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1 (no retry)", src.calls)
	}
	if v := counterValue(t, metrics, outcomeUpstreamError); v != 1 {
		t.Errorf("upstream_error counter = %v, want 1", v)
	}
	if n := histogramCount(t, metrics.candidates); n != 0 {
		t.Errorf("candidate observations = %d, want 0", n)
	}
}

func TestMetrics_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		m := NewMetrics()
		reg := prometheus.NewRegistry()
		if err := m.Register(reg); err != nil {
			t.Fatalf("Register() returned error: %v", err)
		}

		// Vectors only appear in Gather output once a label set exists.
		m.ObserveRecommendation(outcomeMatched, 3, 6)

		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("Gather() returned error: %v", err)
		}
		expected := map[string]bool{
			MetricRecommendationsTotal:     false,
			MetricRecommendationCandidates: false,
			MetricRecommendationTopScore:   false,
		}
		for _, f := range families {
			if _, ok := expected[f.GetName()]; ok {
				expected[f.GetName()] = true
			}
		}
		for name, found := range expected {
			if !found {
				t.Errorf("metric %s not found in gathered metrics", name)
			}
		}
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		if err := NewMetrics().Register(reg); err != nil {
			t.Fatalf("first Register() returned error: %v", err)
		}
		if err := NewMetrics().Register(reg); err == nil {
			t.Error("second Register() should have returned an error")
		}
	})
}
