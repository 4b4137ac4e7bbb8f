package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/cropadvisor/internal/auth"
)

const testSecret = "middleware-test-secret-with-32-bytes!"

type expiredValidator struct{}

func (expiredValidator) ValidateToken(string) (*auth.Claims, error) {
	return nil, auth.ErrExpiredToken
}

func issue(t *testing.T, svc *auth.JWTService, email string, admin bool) string {
	t.Helper()
	token, err := svc.GenerateAccessToken("user-1", email, admin)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	return token
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rr.Body.String(), err)
	}
	return body.Error.Code
}

func TestAuthenticate(t *testing.T) {
	svc := auth.NewJWTService(testSecret)
	userToken := issue(t, svc, "grower@example.com", false)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
		wantEmail  string
	}{
		{name: "no header is anonymous", header: "", wantStatus: http.StatusOK},
		{name: "valid bearer token", header: "Bearer " + userToken, wantStatus: http.StatusOK, wantEmail: "grower@example.com"},
		{name: "scheme is case insensitive", header: "bearer " + userToken, wantStatus: http.StatusOK, wantEmail: "grower@example.com"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized, wantCode: "auth_failed"},
		{name: "missing token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantCode: "auth_failed"},
		{name: "garbage token", header: "Bearer not.a.jwt", wantStatus: http.StatusUnauthorized, wantCode: "auth_failed"},
		{name: "token from another secret", header: "Bearer " + issue(t, auth.NewJWTService("some-other-secret-of-enough-length"), "x@example.com", true), wantStatus: http.StatusUnauthorized, wantCode: "auth_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotEmail string
			handler := Authenticate(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotEmail = GetUserEmail(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin/users/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if code := errorCode(t, rr); code != tt.wantCode {
					t.Errorf("error code = %q, want %q", code, tt.wantCode)
				}
				return
			}
			if gotEmail != tt.wantEmail {
				t.Errorf("user email = %q, want %q", gotEmail, tt.wantEmail)
			}
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	handler := Authenticate(expiredValidator{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/users/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if code := errorCode(t, rr); code != "token_expired" {
		t.Errorf("error code = %q, want token_expired", code)
	}
}

func TestRequireAdmin(t *testing.T) {
	svc := auth.NewJWTService(testSecret)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "anonymous", wantStatus: http.StatusUnauthorized},
		{name: "regular user", token: issue(t, svc, "grower@example.com", false), wantStatus: http.StatusForbidden},
		{name: "admin", token: issue(t, svc, "admin@example.com", true), wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Authenticate(svc)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !IsAdmin(r.Context()) {
					t.Error("IsAdmin() = false inside admin-only handler")
				}
				w.WriteHeader(http.StatusNoContent)
			})))

			req := httptest.NewRequest(http.MethodGet, "/admin/users/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	svc := auth.NewJWTService(testSecret)
	handler := Authenticate(svc)(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil || claims.Subject != "user-1" {
			t.Errorf("claims = %+v, want subject user-1", claims)
		}
		w.WriteHeader(http.StatusOK)
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rr.Code)
	}
	if code := errorCode(t, rr); code != "auth_required" {
		t.Errorf("error code = %q, want auth_required", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, svc, "grower@example.com", false))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rr.Code)
	}
}

func TestAuthenticate_LogsUserEmail(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	svc := auth.NewJWTService(testSecret)

	handler := Logging(logger)(Authenticate(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/admin/users/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, svc, "admin@example.com", true))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(logBuf.String(), "user_email=admin@example.com") {
		t.Errorf("expected user_email in log, got: %s", logBuf.String())
	}
}

func TestIsAdmin_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if IsAdmin(req.Context()) {
		t.Error("IsAdmin() = true for anonymous request")
	}
	if GetClaims(req.Context()) != nil {
		t.Error("GetClaims() should be nil for anonymous request")
	}
}
