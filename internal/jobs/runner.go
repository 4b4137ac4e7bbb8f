package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Func is one execution of a background job.
type Func func(ctx context.Context) error

// Run executes fn once and records its outcome. m may be nil.
func Run(ctx context.Context, jobType string, fn Func, m *Metrics) error {
	start := time.Now()
	err := fn(ctx)
	finished := time.Now()

	if m != nil {
		errorType := ""
		if err != nil {
			errorType = classify(err)
		}
		m.observe(jobType, finished.Sub(start), finished, errorType)
	}
	if err != nil {
		slog.ErrorContext(ctx, "background job failed", "job_type", jobType, "error", err)
	}
	return err
}

// Every runs fn immediately and then every interval until ctx is cancelled.
// Failures are logged and counted; the schedule continues. Blocks; start it
// in a goroutine.
func Every(ctx context.Context, jobType string, interval time.Duration, fn Func, m *Metrics) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_ = Run(ctx, jobType, fn, m)
	for {
		select {
		case <-ticker.C:
			_ = Run(ctx, jobType, fn, m)
		case <-ctx.Done():
			slog.Info("stopping background job", "job_type", jobType)
			return
		}
	}
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
