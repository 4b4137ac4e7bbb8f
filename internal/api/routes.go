package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/onnwee/cropadvisor/internal/idempotency"
	"github.com/onnwee/cropadvisor/internal/middleware"
)

// RateLimits holds the per-route-class limits.
type RateLimits struct {
	Global  middleware.RateLimitConfig
	Auth    middleware.RateLimitConfig
	Contact middleware.RateLimitConfig
}

// DefaultRateLimits returns the middleware package defaults.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Global:  middleware.DefaultGlobalLimit(),
		Auth:    middleware.DefaultAuthLimit(),
		Contact: middleware.DefaultContactLimit(),
	}
}

// ServerConfig wires handlers and middleware into the API handler.
// Nil optional fields disable the corresponding feature.
type ServerConfig struct {
	Logger *slog.Logger

	Health    *HealthHandlers
	Recommend *RecommendHandlers
	Auth      *AuthHandlers
	Admin     *AdminHandlers
	Contact   *ContactHandlers

	// Tokens validates bearer tokens for Authenticate and the admin routes.
	Tokens middleware.TokenValidator

	// Metrics records HTTP and rate limit metrics (optional).
	Metrics *middleware.Metrics
	// MetricsHandler serves /metrics (optional).
	MetricsHandler http.Handler

	// RateLimitStore enables rate limiting (optional).
	RateLimitStore middleware.RateLimitStore
	RateLimits     RateLimits

	// IdempotencyStore enables Idempotency-Key replay on the contact form (optional).
	IdempotencyStore idempotency.Store

	CORS middleware.CORSConfig

	// TracingServiceName enables otelhttp spans when non-empty.
	TracingServiceName string

	ProfilingEnabled bool
	Env              string
}

// NewServer builds the routed, fully wrapped API handler.
//
// Outer to inner: RequestID, Tracing, HTTPMetrics, Logging, Recovery, CORS,
// global rate limit, Authenticate, profiling, then the mux with per-route
// admin checks, auth/contact rate limits and contact idempotency.
func NewServer(cfg ServerConfig) http.Handler {
	mux := http.NewServeMux()

	limit := func(c middleware.RateLimitConfig, keyFunc middleware.KeyFunc, h http.Handler) http.Handler {
		if cfg.RateLimitStore == nil {
			return h
		}
		return middleware.RateLimiter(cfg.RateLimitStore, c, keyFunc, cfg.Metrics)(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(h)
	}

	mux.HandleFunc("/", Root)
	mux.HandleFunc("/health", cfg.Health.Health)
	mux.HandleFunc("/ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		mux.Handle("/metrics", cfg.MetricsHandler)
	}

	route(mux, "/recommend-crop/", http.HandlerFunc(cfg.Recommend.RecommendCrop))
	route(mux, "/fertilizer_recommendations", http.HandlerFunc(cfg.Recommend.FertilizerRecommendations))

	route(mux, "/signup", limit(cfg.RateLimits.Auth, middleware.IPKeyFunc(), http.HandlerFunc(cfg.Auth.Signup)))
	route(mux, "/login", limit(cfg.RateLimits.Auth, middleware.IPKeyFunc(), http.HandlerFunc(cfg.Auth.Login)))
	route(mux, "/admin/login", limit(cfg.RateLimits.Auth, middleware.IPKeyFunc(), http.HandlerFunc(cfg.Auth.AdminLogin)))

	route(mux, "/admin/create-user/", admin(cfg.Admin.CreateUser))
	route(mux, "/admin/users/", admin(cfg.Admin.ListUsers))
	route(mux, "/admin/update-user/", admin(cfg.Admin.UpdateUser))
	route(mux, "/admin/delete-user/", admin(cfg.Admin.DeleteUser))
	route(mux, "/admin/promote-user/", admin(cfg.Admin.PromoteUser))
	route(mux, "/admin/demote-user/", admin(cfg.Admin.DemoteUser))
	route(mux, "/admin/audit-log/", admin(cfg.Admin.AuditLog))

	var contact http.Handler = http.HandlerFunc(cfg.Contact.SendEmail)
	if cfg.IdempotencyStore != nil {
		contact = middleware.Idempotency(cfg.IdempotencyStore, map[string]bool{"/send-email": true})(contact)
	}
	route(mux, "/send-email/", limit(cfg.RateLimits.Contact, middleware.IPKeyFunc(), contact))

	var handler http.Handler = mux
	handler = middleware.Profiling(cfg.ProfilingEnabled, cfg.Env)(handler)
	handler = middleware.Authenticate(cfg.Tokens)(handler)
	handler = limit(cfg.RateLimits.Global, middleware.UserKeyFunc(), handler)
	handler = middleware.CORS(cfg.CORS)(handler)
	handler = middleware.Recovery(cfg.Logger)(handler)
	handler = middleware.Logging(cfg.Logger)(handler)
	if cfg.Metrics != nil {
		handler = middleware.HTTPMetrics(cfg.Metrics)(handler)
	}
	if cfg.TracingServiceName != "" {
		handler = middleware.Tracing(cfg.TracingServiceName)(handler)
	}
	return middleware.RequestID(handler)
}

// route registers h for path with and without its trailing slash, matching
// exactly. Clients of the API are inconsistent about the slash and a redirect
// would drop POST bodies in some HTTP clients.
func route(mux *http.ServeMux, path string, h http.Handler) {
	trimmed := strings.TrimSuffix(path, "/")
	mux.Handle(trimmed, h)
	mux.Handle(trimmed+"/{$}", h)
}
