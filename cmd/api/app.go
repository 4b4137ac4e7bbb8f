package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/cropadvisor/internal/api"
	"github.com/onnwee/cropadvisor/internal/audit"
	"github.com/onnwee/cropadvisor/internal/auth"
	"github.com/onnwee/cropadvisor/internal/config"
	"github.com/onnwee/cropadvisor/internal/crop"
	"github.com/onnwee/cropadvisor/internal/db"
	"github.com/onnwee/cropadvisor/internal/health"
	"github.com/onnwee/cropadvisor/internal/idempotency"
	"github.com/onnwee/cropadvisor/internal/jobs"
	"github.com/onnwee/cropadvisor/internal/mail"
	"github.com/onnwee/cropadvisor/internal/middleware"
	"github.com/onnwee/cropadvisor/internal/recommend"
	"github.com/onnwee/cropadvisor/internal/tracing"
	"github.com/onnwee/cropadvisor/internal/user"
	"github.com/onnwee/cropadvisor/migrations"
)

// serviceName identifies the API in traces.
const serviceName = "cropadvisor-api"

// rateLimitCleanupInterval sweeps expired in-memory rate limit buckets.
const rateLimitCleanupInterval = 5 * time.Minute

// idempotencyCleanupInterval sweeps expired in-memory idempotency records.
const idempotencyCleanupInterval = time.Hour

// app holds the wired handler and everything that must be stopped with it.
type app struct {
	handler http.Handler

	// background runs until its context is cancelled.
	background []func(ctx context.Context)
	// closers run in reverse order on shutdown.
	closers []func(ctx context.Context) error
}

func (a *app) onClose(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

// start launches background workers bound to ctx.
func (a *app) start(ctx context.Context) {
	for _, fn := range a.background {
		go fn(ctx)
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// options are command line switches that affect wiring.
type options struct {
	// seed loads the built-in crop dataset into an empty store.
	seed bool
}

// newApp wires stores, services and the HTTP handler from cfg.
// Without DATABASE_URL the server runs on seeded in-memory stores; without
// REDIS_URL caching, rate limiting and idempotency stay in process.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts options) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.close(context.Background())
		}
	}()

	// Tracing
	provider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TracingSampleRate,
		InsecureMode: !cfg.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.onClose(provider.Shutdown)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register http metrics: %w", err)
	}
	recommendMetrics := recommend.NewMetrics()
	if err := recommendMetrics.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register recommendation metrics: %w", err)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register job metrics: %w", err)
	}

	// Storage
	var (
		database  *sql.DB
		cropStore crop.Repository
		userStore user.Repository
		trail     audit.Repository
	)
	if cfg.DatabaseURL != "" {
		database, err = db.Open(ctx, cfg.DatabaseURL, db.DefaultPoolConfig())
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return database.Close() })

		applied, err := migrations.Apply(ctx, database)
		if err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("database ready", "migrations_applied", applied)

		cropStore = crop.NewResilientRepository(crop.NewPostgresRepository(database), crop.DefaultResilienceConfig())
		userStore = user.NewPostgresRepository(database)
		trail = audit.NewPostgresRepository(database)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		cropStore = crop.NewSeededInMemoryRepository()
		userStore = user.NewInMemoryRepository()
		trail = audit.NewInMemoryRepository()
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		a.onClose(func(context.Context) error { return redisClient.Close() })

		cropStore = crop.NewCachedRepository(cropStore, redisClient, cfg.RangeCacheTTL(), logger)
	}

	if opts.seed {
		var seeded crop.SeedStats
		seed := func(ctx context.Context) error {
			var err error
			seeded, err = crop.Seed(ctx, cropStore)
			return err
		}
		if err := jobs.Run(ctx, jobs.JobTypeCropSeed, seed, jobMetrics); err != nil {
			return nil, fmt.Errorf("failed to seed crop data: %w", err)
		}
		seeded.LogSummary(logger)
	}

	// Accounts
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	accounts := user.NewService(userStore, hasher)
	if cfg.HasAdminBootstrap() {
		admin, err := accounts.Bootstrap(ctx, cfg.AdminEmail, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
		logger.Info("admin account ready", "username", admin.Username)
	}
	tokens := auth.NewJWTServiceWithRotation(cfg.JWTSecret, cfg.JWTPreviousSecret)

	// Mail
	var relay mail.Relay
	if cfg.SMTPHost != "" {
		relay = mail.NewSMTPRelay(mail.SMTPConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			From:       cfg.MailSender,
			To:         cfg.MailRecipient,
			RequireTLS: cfg.IsProduction(),
		})
	} else {
		logger.Warn("SMTP_HOST not set, contact messages will only be logged")
		relay = mail.NewLogRelay(logger)
	}

	// Rate limiting and idempotency
	var (
		rateStore middleware.RateLimitStore
		idemStore idempotency.Store
	)
	if redisClient != nil {
		rateStore = middleware.NewRedisRateLimitStore(redisClient).WithMetrics(httpMetrics)
		idemStore = idempotency.NewRedisStore(redisClient, cfg.IdempotencyTTL())
	} else {
		memRate := middleware.NewInMemoryRateLimitStore()
		rateStore = memRate
		memIdem := idempotency.NewInMemoryStore()
		idemStore = memIdem

		a.background = append(a.background,
			func(ctx context.Context) {
				jobs.Every(ctx, jobs.JobTypeRateLimitCleanup, rateLimitCleanupInterval, func(ctx context.Context) error {
					if n := memRate.Cleanup(); n > 0 {
						logger.DebugContext(ctx, "expired rate limit windows removed", "count", n)
					}
					return nil
				}, jobMetrics)
			},
			func(ctx context.Context) {
				jobs.Every(ctx, jobs.JobTypeIdempotencyCleanup, idempotencyCleanupInterval, func(ctx context.Context) error {
					_, err := idempotency.CleanupOldKeys(ctx, memIdem, cfg.IdempotencyTTL())
					return err
				}, jobMetrics)
			},
		)
	}

	// Health
	healthCfg := api.HealthHandlersConfig{}
	if database != nil {
		healthCfg.DBChecker = health.NewDBChecker(database)
	}
	if redisClient != nil {
		healthCfg.RedisChecker = health.NewRedisChecker(redisClient)
	}

	tracingName := ""
	if provider.IsEnabled() {
		tracingName = serviceName
	}

	a.handler = api.NewServer(api.ServerConfig{
		Logger:         logger,
		Health:         api.NewHealthHandlers(healthCfg),
		Recommend:      api.NewRecommendHandlers(recommend.NewRecommender(cropStore, recommendMetrics), cropStore),
		Auth:           api.NewAuthHandlers(accounts, tokens),
		Admin:          api.NewAdminHandlers(accounts, trail),
		Contact:        api.NewContactHandlers(relay),
		Tokens:         tokens,
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		RateLimitStore: rateStore,
		RateLimits: api.RateLimits{
			Global:  perMinute(middleware.DefaultGlobalLimit(), cfg.RateLimitGlobal),
			Auth:    perMinute(middleware.DefaultAuthLimit(), cfg.RateLimitAuth),
			Contact: perMinute(middleware.DefaultContactLimit(), cfg.RateLimitContact),
		},
		IdempotencyStore: idemStore,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			MaxAge:         3600,
		},
		TracingServiceName: tracingName,
		ProfilingEnabled:   cfg.ProfilingEnabled,
		Env:                cfg.Env,
	})
	return a, nil
}

// perMinute overrides the request count of a default per-minute limit.
func perMinute(limit middleware.RateLimitConfig, n int) middleware.RateLimitConfig {
	limit.RequestsPerWindow = n
	return limit
}
