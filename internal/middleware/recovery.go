package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery converts handler panics into a 500 JSON response and logs the
// panic value with a stack trace. http.ErrAbortHandler is re-raised so the
// server can abort the connection as usual.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &statusRecorder{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
					"stack", string(debug.Stack()),
				)

				// Headers already went out; nothing useful can be written.
				if rw.status != 0 {
					return
				}
				writeJSONError(rw, r, http.StatusInternalServerError, "internal_error", "Internal server error")
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
