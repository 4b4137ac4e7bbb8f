// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type (
	userEmailKey  struct{}
	errorCodeKey  struct{}
	requestLogKey struct{}
)

// requestLog carries fields set deep in the chain back up to Logging.
// Handlers only see derived contexts, so context values alone never return.
type requestLog struct {
	mu        sync.Mutex
	userEmail string
	errorCode string
}

func getRequestLog(ctx context.Context) *requestLog {
	rl, _ := ctx.Value(requestLogKey{}).(*requestLog)
	return rl
}

func (rl *requestLog) snapshot() (email, code string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.userEmail, rl.errorCode
}

// SetUserEmail records the authenticated caller on ctx and on the access log.
func SetUserEmail(ctx context.Context, email string) context.Context {
	if rl := getRequestLog(ctx); rl != nil {
		rl.mu.Lock()
		rl.userEmail = email
		rl.mu.Unlock()
	}
	return context.WithValue(ctx, userEmailKey{}, email)
}

func GetUserEmail(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey{}).(string)
	return email
}

// SetErrorCode records the API error code of the response being written.
// api.WriteError and the middleware error paths call it.
func SetErrorCode(ctx context.Context, code string) context.Context {
	if rl := getRequestLog(ctx); rl != nil {
		rl.mu.Lock()
		rl.errorCode = code
		rl.mu.Unlock()
	}
	return context.WithValue(ctx, errorCodeKey{}, code)
}

func GetErrorCode(ctx context.Context) string {
	code, _ := ctx.Value(errorCodeKey{}).(string)
	return code
}

// NewLogger returns a JSON logger at info level in production and a text
// logger at debug level everywhere else.
func NewLogger(w io.Writer, env string) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Logging writes one "request completed" line per request. 5xx responses log
// at error level and 4xx at warn; error_code is only reported for those.
//
// Recovery must sit inside Logging so recovered panics are logged as 500s.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rl := &requestLog{}
			ctx := context.WithValue(r.Context(), requestLogKey{}, rl)
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.code()
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
				slog.Int64("size", rec.bytes),
				slog.String("client_ip", ClientIP(r)),
			}
			if id := GetRequestID(ctx); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if id := GetTraceID(ctx); id != "" {
				attrs = append(attrs, slog.String("trace_id", id))
			}
			email, code := rl.snapshot()
			if email != "" {
				attrs = append(attrs, slog.String("user_email", email))
			}
			if status >= 400 && code != "" {
				attrs = append(attrs, slog.String("error_code", code))
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(ctx, level, "request completed", attrs...)
		})
	}
}
