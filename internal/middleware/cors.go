package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin access for browser clients.
// An empty AllowedOrigins disables CORS handling entirely.
type CORSConfig struct {
	AllowedOrigins   []string // exact origins, no wildcards
	AllowedMethods   []string // defaults to DefaultCORSMethods
	AllowedHeaders   []string // defaults to DefaultCORSHeaders
	AllowCredentials bool
	MaxAge           int // preflight cache lifetime in seconds
}

// Defaults used when CORSConfig leaves methods or headers empty.
var (
	DefaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	DefaultCORSHeaders = []string{"Content-Type", "Authorization", RequestIDHeader, IdempotencyKeyHeader}
)

// exposedHeaders are readable by browser scripts on cross-origin responses.
var exposedHeaders = strings.Join([]string{RequestIDHeader, IdempotentReplayedHeader, "Retry-After"}, ", ")

// CORS validates the Origin header against an allowlist.
// Requests without Origin are same-origin or non-browser and pass through.
// A disallowed origin gets 403 with the usual JSON error envelope, and
// preflight requests from allowed origins are answered with 204.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			allowed[origin] = true
		}
	}

	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = DefaultCORSMethods
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = DefaultCORSHeaders
	}
	allowMethods := strings.Join(methods, ", ")
	allowHeaders := strings.Join(headers, ", ")

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Responses differ per Origin; keep shared caches from mixing them.
			w.Header().Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !allowed[origin] {
				writeJSONError(w, r, http.StatusForbidden, "origin_not_allowed", "Origin not allowed")
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", allowMethods)
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			h.Set("Access-Control-Expose-Headers", exposedHeaders)
			next.ServeHTTP(w, r)
		})
	}
}
