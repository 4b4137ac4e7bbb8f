package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/onnwee/cropadvisor/internal/auth"
)

// claimsKey is the context key for validated token claims.
type claimsKey struct{}

// TokenValidator validates bearer tokens. *auth.JWTService satisfies it.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Authenticate parses an optional "Authorization: Bearer <token>" header.
// Requests without the header pass through anonymously; a malformed header or
// a token that fails validation is rejected with 401.
func Authenticate(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				writeJSONError(w, r, http.StatusUnauthorized, "auth_failed", "Invalid authorization header format")
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					writeJSONError(w, r, http.StatusUnauthorized, "token_expired", "Token has expired")
					return
				}
				writeJSONError(w, r, http.StatusUnauthorized, "auth_failed", "Invalid token")
				return
			}

			ctx := SetUserEmail(r.Context(), claims.Email)
			ctx = context.WithValue(ctx, claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the validated claims, or nil for anonymous requests.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

// IsAdmin reports whether the request carries an admin token.
func IsAdmin(ctx context.Context) bool {
	claims := GetClaims(ctx)
	return claims != nil && claims.Admin
}

// RequireAuth rejects anonymous requests. Must run after Authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetClaims(r.Context()) == nil {
			writeJSONError(w, r, http.StatusUnauthorized, "auth_required", "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests without an admin token: 401 when anonymous,
// 403 when authenticated as a regular user.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil {
			writeJSONError(w, r, http.StatusUnauthorized, "auth_required", "Authentication required")
			return
		}
		if !claims.Admin {
			writeJSONError(w, r, http.StatusForbidden, "forbidden", "Admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSONError writes the same {"error":{"code","message"}} envelope as the
// api package, which cannot be imported from here.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	SetErrorCode(r.Context(), code)

	body := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	body.Error.Code = code
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
