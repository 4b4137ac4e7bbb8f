package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker defines the interface for components that can be health checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// readinessTimeout bounds all dependency checks of one /ready call.
const readinessTimeout = 5 * time.Second

// Check results reported per dependency.
const (
	checkOK            = "ok"
	checkError         = "error"
	checkDegraded      = "degraded"
	checkNotConfigured = "not_configured"
)

// HealthHandlers provides liveness and readiness endpoints.
type HealthHandlers struct {
	// dbChecker is nil when the server runs on in-memory stores.
	dbChecker HealthChecker
	// redisChecker is nil when no Redis is configured.
	redisChecker HealthChecker
}

// HealthHandlersConfig configures the health check handlers.
type HealthHandlersConfig struct {
	DBChecker    HealthChecker
	RedisChecker HealthChecker
}

// NewHealthHandlers creates a new health check handler.
func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	return &HealthHandlers{
		dbChecker:    config.DBChecker,
		redisChecker: config.RedisChecker,
	}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
// Returns 200 whenever the process can serve requests.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeHealth(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": checkOK},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready (readiness probe).
// A failing database makes the instance unready (503). A failing Redis only
// degrades it: the range cache falls through to the store and rate limits
// fail open, so traffic can still be served.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"metrics": checkOK}
	healthy := true

	if h.dbChecker == nil {
		checks["database"] = checkNotConfigured
	} else if err := h.dbChecker.HealthCheck(ctx); err != nil {
		checks["database"] = checkError
		healthy = false
		slog.WarnContext(ctx, "database health check failed", "error", err)
	} else {
		checks["database"] = checkOK
	}

	if h.redisChecker == nil {
		checks["redis"] = checkNotConfigured
	} else if err := h.redisChecker.HealthCheck(ctx); err != nil {
		checks["redis"] = checkDegraded
		slog.WarnContext(ctx, "redis health check failed", "error", err)
	} else {
		checks["redis"] = checkOK
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	writeHealth(w, r, code, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeHealth(w http.ResponseWriter, r *http.Request, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode health response", "error", err)
	}
}
