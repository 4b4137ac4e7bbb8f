// Package jobs runs and instruments the API's background jobs.
package jobs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricBackgroundJobsTotal      = "background_jobs_total"
	MetricBackgroundJobsDuration   = "background_jobs_duration_seconds"
	MetricBackgroundJobErrorsTotal = "background_job_errors_total"
	MetricBackgroundJobLastSuccess = "background_job_last_success_timestamp_seconds"
)

// Job types, used as the job_type label.
const (
	JobTypeRateLimitCleanup   = "rate_limit_cleanup"
	JobTypeIdempotencyCleanup = "idempotency_cleanup"
	JobTypeCropSeed           = "crop_seed"
)

// Values of the status label.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics instruments job executions. A stale last-success gauge is what
// alerts should watch; cleanup jobs that keep failing never move it.
type Metrics struct {
	jobsTotal    *prometheus.CounterVec
	jobsDuration *prometheus.HistogramVec
	jobErrors    *prometheus.CounterVec
	lastSuccess  *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBackgroundJobsTotal,
			Help: "Background job executions by type and status",
		}, []string{"job_type", "status"}),
		jobsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: MetricBackgroundJobsDuration,
			Help: "Background job duration in seconds",
			// Sweeps take microseconds; seeding against Postgres can take seconds.
			Buckets: prometheus.ExponentialBuckets(0.0005, 5, 8),
		}, []string{"job_type"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBackgroundJobErrorsTotal,
			Help: "Background job failures by type and error class",
		}, []string{"job_type", "error_type"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricBackgroundJobLastSuccess,
			Help: "Unix time of the last successful run per job type",
		}, []string{"job_type"}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// observe records one finished execution. errorType is ignored on success.
func (m *Metrics) observe(jobType string, took time.Duration, finished time.Time, errorType string) {
	m.jobsDuration.WithLabelValues(jobType).Observe(took.Seconds())
	if errorType != "" {
		m.jobsTotal.WithLabelValues(jobType, StatusFailure).Inc()
		m.jobErrors.WithLabelValues(jobType, errorType).Inc()
		return
	}
	m.jobsTotal.WithLabelValues(jobType, StatusSuccess).Inc()
	m.lastSuccess.WithLabelValues(jobType).Set(float64(finished.Unix()))
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.jobsTotal, m.jobsDuration, m.jobErrors, m.lastSuccess}
}
