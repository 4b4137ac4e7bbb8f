package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// UnmatchedPath is the path label recorded for requests outside the route table.
const UnmatchedPath = "/{unmatched}"

// knownRoutes lists every path the API serves. The API has no path
// parameters, so normalization only has to collapse unknown paths.
var knownRoutes = map[string]bool{
	"/":                           true,
	"/health":                     true,
	"/ready":                      true,
	"/metrics":                    true,
	"/recommend-crop/":            true,
	"/fertilizer_recommendations": true,
	"/signup":                     true,
	"/login":                      true,
	"/admin/login":                true,
	"/admin/create-user/":         true,
	"/admin/users/":               true,
	"/admin/update-user/":         true,
	"/admin/delete-user/":         true,
	"/admin/promote-user/":        true,
	"/admin/demote-user/":         true,
	"/admin/audit-log/":           true,
	"/send-email/":                true,
}

// normalizePath maps a request path to its metrics label. Known routes are
// recorded as-is (tolerating a missing or extra trailing slash); anything else
// becomes UnmatchedPath so scanners cannot blow up label cardinality.
func normalizePath(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasSuffix(path, "/") {
		if trimmed := strings.TrimSuffix(path, "/"); knownRoutes[trimmed] {
			return trimmed
		}
	} else if knownRoutes[path+"/"] {
		return path + "/"
	}
	return UnmatchedPath
}

// unobservedPaths are probes and scrapes that would drown the request metrics.
var unobservedPaths = map[string]bool{"/health": true, "/ready": true, "/metrics": true}

// statusRecorder remembers the status code and counts body bytes.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *statusRecorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// HTTPMetrics records count, latency and body sizes per method, route and
// status. Paths are normalized through the route table; probes and /metrics
// are not observed.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if unobservedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			metrics.ObserveHTTPRequest(r.Method, normalizePath(r.URL.Path), strconv.Itoa(rec.code()),
				time.Since(start).Seconds(), max(r.ContentLength, 0), rec.bytes)
		})
	}
}
