package api

import (
	"net/http"
	"testing"

	"github.com/onnwee/cropadvisor/internal/auth"
)

func TestSignup(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing email", SignupRequest{Username: "farmer", Password: "secret1"}, http.StatusBadRequest, ErrCodeValidation},
		{"invalid email", SignupRequest{Email: "not-an-email", Username: "farmer", Password: "secret1"}, http.StatusBadRequest, ErrCodeValidation},
		{"short username", SignupRequest{Email: "a@example.com", Username: "ab", Password: "secret1"}, http.StatusBadRequest, ErrCodeValidation},
		{"short password", SignupRequest{Email: "a@example.com", Username: "farmer", Password: "123"}, http.StatusBadRequest, ErrCodeValidation},
		{"duplicate email", SignupRequest{Email: testAdminEmail, Username: "other", Password: "secret1"}, http.StatusConflict, ErrCodeDuplicateUser},
		{"duplicate username", SignupRequest{Email: "new@example.com", Username: testAdminUsername, Password: "secret1"}, http.StatusConflict, ErrCodeDuplicateUser},
		{"malformed body", `{"email":`, http.StatusBadRequest, ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(t, http.MethodPost, "/signup", tt.body, nil)
			assertError(t, w, tt.status, tt.code)
		})
	}
}

func TestSignupThenLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/signup/", SignupRequest{
		Email:    "  Farmer@Example.com ",
		Username: "farmer",
		Password: "secret1",
	}, nil)
	assertMessage(t, w, http.StatusCreated, "User registered successfully")

	// Emails are normalized, so login works with any casing.
	w = s.do(t, http.MethodPost, "/login", LoginRequest{Email: "FARMER@example.com", Password: "secret1"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	var resp LoginResponse
	decodeBody(t, w, &resp)

	if resp.Message != "Login successful" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.Username != "farmer" {
		t.Errorf("username = %q, want farmer", resp.Username)
	}
	if resp.IsAdmin {
		t.Error("regular login reported is_admin")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", resp.TokenType)
	}
	if resp.ExpiresIn != int(auth.AccessTokenExpiry.Seconds()) {
		t.Errorf("expires_in = %d", resp.ExpiresIn)
	}

	claims, err := s.tokens.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Email != "farmer@example.com" {
		t.Errorf("token email = %q", claims.Email)
	}
	if claims.Admin {
		t.Error("regular user token carries admin claim")
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"wrong password", LoginRequest{Email: testAdminEmail, Password: "nope-nope"}, http.StatusUnauthorized, ErrCodeAuthFailed},
		{"unknown email", LoginRequest{Email: "ghost@example.com", Password: "secret1"}, http.StatusUnauthorized, ErrCodeAuthFailed},
		{"malformed email", LoginRequest{Email: "ghost", Password: "secret1"}, http.StatusUnauthorized, ErrCodeAuthFailed},
		{"missing password", LoginRequest{Email: testAdminEmail}, http.StatusBadRequest, ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(t, http.MethodPost, "/login", tt.body, nil)
			assertError(t, w, tt.status, tt.code)
		})
	}
}

func TestAdminLogin(t *testing.T) {
	s := newTestServer(t)

	t.Run("admin", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/admin/login", LoginRequest{Email: testAdminEmail, Password: testAdminPassword}, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
		}
		var resp LoginResponse
		decodeBody(t, w, &resp)
		if resp.Message != "Admin login successful" || !resp.IsAdmin {
			t.Errorf("response = %+v", resp)
		}
		claims, err := s.tokens.ValidateToken(resp.AccessToken)
		if err != nil {
			t.Fatalf("ValidateToken() error = %v", err)
		}
		if !claims.Admin {
			t.Error("admin token is missing the admin claim")
		}
	})

	t.Run("non-admin account", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/signup", SignupRequest{Email: "plain@example.com", Username: "plain", Password: "secret1"}, nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("signup status = %d", w.Code)
		}

		w = s.do(t, http.MethodPost, "/admin/login", LoginRequest{Email: "plain@example.com", Password: "secret1"}, nil)
		assertError(t, w, http.StatusUnauthorized, ErrCodeAuthFailed)
	})
}
