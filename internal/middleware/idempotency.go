package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/onnwee/cropadvisor/internal/idempotency"
)

// IdempotencyKeyHeader is the HTTP header name for idempotency keys.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotentReplayedHeader marks a response served from the idempotency store.
const IdempotentReplayedHeader = "Idempotent-Replayed"

// maxFingerprintBytes caps how much of the body is hashed.
const maxFingerprintBytes = 1 << 20

type idempotencyKeyContextKey struct{}

// captureWriter keeps a copy of the body so it can be stored after the
// handler returns.
type captureWriter struct {
	statusRecorder
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	n, err := w.statusRecorder.Write(b)
	w.body.Write(b[:n])
	return n, err
}

// GetIdempotencyKey returns the validated Idempotency-Key of the request, or "".
func GetIdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyContextKey{}).(string)
	return key
}

// Idempotency replays stored responses for POST requests to the given routes
// that repeat an Idempotency-Key. Routes are keyed without a trailing slash,
// so "/send-email" and "/send-email/" share stored responses. The header is
// optional; requests without it run normally. Only 2xx responses are stored,
// and reusing a key with a different body is rejected with 422.
func Idempotency(store idempotency.Store, routes map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			route := strings.TrimSuffix(r.URL.Path, "/")
			if key == "" || r.Method != http.MethodPost || !routes[route] {
				next.ServeHTTP(w, r)
				return
			}

			if err := idempotency.ValidateKey(key); err != nil {
				if errors.Is(err, idempotency.ErrKeyTooLong) {
					writeJSONError(w, r, http.StatusBadRequest, "idempotency_key_too_long", "Idempotency-Key exceeds maximum length of 64 characters")
					return
				}
				writeJSONError(w, r, http.StatusBadRequest, "invalid_idempotency_key", "Invalid Idempotency-Key format")
				return
			}

			head, err := io.ReadAll(io.LimitReader(r.Body, maxFingerprintBytes))
			if err != nil {
				writeJSONError(w, r, http.StatusBadRequest, "bad_request", "Failed to read request body")
				return
			}
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))
			fingerprint := idempotency.Fingerprint(head)

			ctx := context.WithValue(r.Context(), idempotencyKeyContextKey{}, key)
			r = r.WithContext(ctx)

			existing, err := store.Get(ctx, idempotency.StorageKey(route, key))
			switch {
			case err == nil:
				if existing.Fingerprint != fingerprint {
					writeJSONError(w, r, http.StatusUnprocessableEntity, "idempotency_key_reused", "Idempotency-Key was already used with a different request body")
					return
				}
				slog.InfoContext(ctx, "replaying stored response", "idempotency_key", key, "status", existing.StatusCode)
				if existing.ContentType != "" {
					w.Header().Set("Content-Type", existing.ContentType)
				}
				w.Header().Set(IdempotentReplayedHeader, "true")
				w.WriteHeader(existing.StatusCode)
				_, _ = io.WriteString(w, existing.Body)
				return
			case !errors.Is(err, idempotency.ErrKeyNotFound):
				// Store outage: serve the request without replay protection.
				slog.WarnContext(ctx, "idempotency lookup failed", "idempotency_key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			cw := &captureWriter{statusRecorder: statusRecorder{ResponseWriter: w}}
			next.ServeHTTP(cw, r)

			status := cw.code()
			if status < 200 || status >= 300 {
				return
			}
			rec := &idempotency.Record{
				Key:         key,
				Method:      r.Method,
				Route:       route,
				Fingerprint: fingerprint,
				StatusCode:  status,
				ContentType: cw.Header().Get("Content-Type"),
				Body:        cw.body.String(),
			}
			if err := store.Put(ctx, rec); err != nil && !errors.Is(err, idempotency.ErrKeyExists) {
				slog.WarnContext(ctx, "failed to store idempotent response", "idempotency_key", key, "error", err)
			}
		})
	}
}
