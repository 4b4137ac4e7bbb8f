package crop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/onnwee/cropadvisor/internal/recommend"
)

// ResilienceConfig tunes the circuit breaker and retry policy of a
// ResilientRepository. Zero values fall back to the defaults below, except
// MaxRetries where zero disables retries.
type ResilienceConfig struct {
	// Name labels the breaker in logs.
	Name string
	// MaxConsecutiveFailures opens the breaker.
	MaxConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// MaxRetries bounds attempts after the first one. Zero means no retries.
	MaxRetries uint64
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	// MaxElapsedTime caps the total time spent retrying one call.
	MaxElapsedTime time.Duration
}

// DefaultResilienceConfig returns the store client defaults.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		Name:                   "crop-store",
		MaxConsecutiveFailures: 5,
		OpenTimeout:            30 * time.Second,
		MaxRetries:             2,
		InitialInterval:        100 * time.Millisecond,
		MaxElapsedTime:         2 * time.Second,
	}
}

func (c ResilienceConfig) withDefaults() ResilienceConfig {
	d := DefaultResilienceConfig()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.MaxConsecutiveFailures == 0 {
		c.MaxConsecutiveFailures = d.MaxConsecutiveFailures
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = d.OpenTimeout
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = d.InitialInterval
	}
	if c.MaxElapsedTime <= 0 {
		c.MaxElapsedTime = d.MaxElapsedTime
	}
	return c
}

// ResilientRepository guards a Repository with a circuit breaker and bounded
// exponential retry. ErrCropNotFound and ErrInvalidCropName are treated as
// successful calls: they neither trip the breaker nor trigger a retry.
type ResilientRepository struct {
	inner   Repository
	breaker *gobreaker.CircuitBreaker
	cfg     ResilienceConfig
}

// NewResilientRepository wraps inner.
func NewResilientRepository(inner Repository, cfg ResilienceConfig) *ResilientRepository {
	cfg = cfg.withDefaults()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.MaxConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isDomainError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &ResilientRepository{
		inner:   inner,
		breaker: breaker,
		cfg:     cfg,
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrCropNotFound) || errors.Is(err, ErrInvalidCropName)
}

// State reports the breaker state.
func (r *ResilientRepository) State() gobreaker.State {
	return r.breaker.State()
}

func (r *ResilientRepository) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.cfg.InitialInterval
	eb.MaxElapsedTime = r.cfg.MaxElapsedTime
	return backoff.WithContext(backoff.WithMaxRetries(eb, r.cfg.MaxRetries), ctx)
}

// call runs fn through the breaker, retrying transient failures.
func call[T any](ctx context.Context, r *ResilientRepository, fn func() (T, error)) (T, error) {
	var result T
	op := func() error {
		v, err := r.breaker.Execute(func() (interface{}, error) {
			return fn()
		})
		if err != nil {
			if isDomainError(err) ||
				errors.Is(err, gobreaker.ErrOpenState) ||
				errors.Is(err, gobreaker.ErrTooManyRequests) ||
				ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = v.(T)
		return nil
	}

	if err := backoff.Retry(op, r.newBackOff(ctx)); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// ListRanges implements Repository.
func (r *ResilientRepository) ListRanges(ctx context.Context) ([]recommend.CropRange, error) {
	return call(ctx, r, func() ([]recommend.CropRange, error) {
		return r.inner.ListRanges(ctx)
	})
}

// GetFertilizer implements Repository.
func (r *ResilientRepository) GetFertilizer(ctx context.Context, cropName string) (*Fertilizer, error) {
	return call(ctx, r, func() (*Fertilizer, error) {
		return r.inner.GetFertilizer(ctx, cropName)
	})
}

// UpsertRange implements Repository.
func (r *ResilientRepository) UpsertRange(ctx context.Context, cr recommend.CropRange) error {
	_, err := call(ctx, r, func() (struct{}, error) {
		return struct{}{}, r.inner.UpsertRange(ctx, cr)
	})
	return err
}

// UpsertFertilizer implements Repository.
func (r *ResilientRepository) UpsertFertilizer(ctx context.Context, f *Fertilizer) error {
	_, err := call(ctx, r, func() (struct{}, error) {
		return struct{}{}, r.inner.UpsertFertilizer(ctx, f)
	})
	return err
}
