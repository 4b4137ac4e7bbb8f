package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig is one named fixed-window limit. Name scopes the counters so
// limits sharing a store and a key function never share buckets.
type RateLimitConfig struct {
	Name              string
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// Validate reports a non-positive request count or window.
func (c RateLimitConfig) Validate() error {
	var errs []error
	if c.RequestsPerWindow <= 0 {
		errs = append(errs, fmt.Errorf("rate limit %q: requests per window must be positive, got %d", c.Name, c.RequestsPerWindow))
	}
	if c.WindowDuration <= 0 {
		errs = append(errs, fmt.Errorf("rate limit %q: window must be positive, got %s", c.Name, c.WindowDuration))
	}
	return errors.Join(errs...)
}

// DefaultGlobalLimit applies to every request: 100 per minute.
func DefaultGlobalLimit() RateLimitConfig {
	return RateLimitConfig{Name: "global", RequestsPerWindow: 100, WindowDuration: time.Minute}
}

// DefaultAuthLimit applies to signup and the login endpoints: 10 per minute.
func DefaultAuthLimit() RateLimitConfig {
	return RateLimitConfig{Name: "auth", RequestsPerWindow: 10, WindowDuration: time.Minute}
}

// DefaultContactLimit applies to the contact form relay: 5 per minute.
func DefaultContactLimit() RateLimitConfig {
	return RateLimitConfig{Name: "contact", RequestsPerWindow: 5, WindowDuration: time.Minute}
}

// RateLimitStore counts requests per key.
//
// Allow records one request and reports whether it fits the limit, how many
// requests remain in the window and, when blocked, the whole seconds until the
// window resets.
type RateLimitStore interface {
	Allow(ctx context.Context, key string, config RateLimitConfig) (allowed bool, remaining int, retryAfter int)
}

type window struct {
	count int
	ends  time.Time
}

// InMemoryRateLimitStore is a fixed-window RateLimitStore for a single
// instance. Expired windows linger until Cleanup.
type InMemoryRateLimitStore struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
}

func NewInMemoryRateLimitStore() *InMemoryRateLimitStore {
	return &InMemoryRateLimitStore{windows: make(map[string]window), now: time.Now}
}

func (s *InMemoryRateLimitStore) Allow(_ context.Context, key string, config RateLimitConfig) (bool, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.ends) {
		w = window{ends: now.Add(config.WindowDuration)}
	}
	if w.count >= config.RequestsPerWindow {
		return false, 0, retryAfterSeconds(w.ends.Sub(now))
	}
	w.count++
	s.windows[key] = w
	return true, config.RequestsPerWindow - w.count, 0
}

// Cleanup drops expired windows and returns how many it removed.
func (s *InMemoryRateLimitStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, w := range s.windows {
		if !now.Before(w.ends) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked windows.
func (s *InMemoryRateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// retryAfterSeconds rounds d up to whole seconds, at least 1.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}

// KeyFunc derives the rate limit key for a request.
type KeyFunc func(r *http.Request) string

// ClientIP returns the originating client address without a port: the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return hostOnly(ip)
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return hostOnly(ip)
	}
	return hostOnly(r.RemoteAddr)
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// IPKeyFunc keys requests by client IP.
func IPKeyFunc() KeyFunc {
	return func(r *http.Request) string { return "ip:" + ClientIP(r) }
}

// UserKeyFunc keys authenticated requests by email and the rest by client IP.
func UserKeyFunc() KeyFunc {
	return func(r *http.Request) string {
		if email := GetUserEmail(r.Context()); email != "" {
			return "user:" + email
		}
		return "ip:" + ClientIP(r)
	}
}

func keyType(key string) string {
	if strings.HasPrefix(key, "user:") {
		return "user"
	}
	return "ip"
}

// RateLimiter rejects requests over config with 429 and the rate_limited
// error code. Every response carries X-RateLimit-Limit and
// X-RateLimit-Remaining; rejections add Retry-After and X-RateLimit-Reset.
// metrics may be nil.
func RateLimiter(store RateLimitStore, config RateLimitConfig, keyFunc KeyFunc, metrics *Metrics) func(http.Handler) http.Handler {
	limit := strconv.Itoa(config.RequestsPerWindow)
	scope := config.Name
	if scope == "" {
		scope = "default"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			endpoint, kind := normalizePath(r.URL.Path), keyType(key)
			if metrics != nil {
				metrics.IncRateLimitRequests(scope, endpoint, kind)
			}

			allowed, remaining, retryAfter := store.Allow(r.Context(), scope+"|"+key, config)
			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			if metrics != nil {
				metrics.IncRateLimitBlocked(scope, endpoint, kind)
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(retryAfter)*time.Second).Unix(), 10))
			writeJSONError(w, r, http.StatusTooManyRequests, "rate_limited", "Too many requests")
		})
	}
}
