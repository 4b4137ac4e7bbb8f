// Package api provides the HTTP handlers of the crop recommendation API
// and its standardized JSON error envelope.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/cropadvisor/internal/middleware"
)

// Error codes. Middleware writes rate_limited, auth_failed, forbidden and
// internal_error with the same envelope.
const (
	ErrCodeValidation       = "validation_error"
	ErrCodeBadRequest       = "bad_request" // malformed or oversized JSON
	ErrCodeAuthFailed       = "auth_failed"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found" // unknown route
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"

	ErrCodeNoMatch       = "no_match"       // no crop scored above zero
	ErrCodeCropNotFound  = "crop_not_found" // no fertilizer guidance for the crop
	ErrCodeUserNotFound  = "user_not_found"
	ErrCodeDuplicateUser = "duplicate_user" // email or username taken
	ErrCodeMailFailed    = "mail_failed"    // contact relay failed
)

// ErrorResponse is the body of every error: {"error":{"code":"...","message":"..."}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes the error envelope with status and records code for the
// access log.
//
//	WriteError(w, r.Context(), http.StatusNotFound, ErrCodeCropNotFound, "Crop not found")
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.SetErrorCode(ctx, code)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "code", code, "error", err)
	}
}
