package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/onnwee/cropadvisor/internal/auth"
	"github.com/onnwee/cropadvisor/internal/user"
	"github.com/onnwee/cropadvisor/internal/validate"
)

// Accounts is the account service used by the auth and admin handlers.
// *user.Service satisfies it.
type Accounts interface {
	Signup(ctx context.Context, email, username, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (*user.User, error)
	AdminLogin(ctx context.Context, email, password string) (*user.User, error)
	CreateUser(ctx context.Context, username, email, password string) (*user.User, error)
	List(ctx context.Context) ([]*user.User, error)
	Update(ctx context.Context, username, newUsername, newPassword string) error
	Delete(ctx context.Context, username string) error
	Promote(ctx context.Context, adminEmail, username string) error
	Demote(ctx context.Context, adminEmail, username string) error
}

// TokenIssuer issues access tokens. *auth.JWTService satisfies it.
type TokenIssuer interface {
	GenerateAccessToken(userID, email string, admin bool) (string, error)
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login and POST /admin/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Message     string `json:"message"`
	Username    string `json:"username"`
	IsAdmin     bool   `json:"is_admin,omitempty"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AuthHandlers serves account registration and login.
type AuthHandlers struct {
	accounts Accounts
	tokens   TokenIssuer
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(accounts Accounts, tokens TokenIssuer) *AuthHandlers {
	return &AuthHandlers{accounts: accounts, tokens: tokens}
}

// credentials validates the fields shared by signup and admin user creation.
// On failure it writes a 400 and returns ok=false.
func credentials(w http.ResponseWriter, r *http.Request, email, username, password string) (string, string, string, bool) {
	email, err := validate.Email(email)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "email: "+err.Error())
		return "", "", "", false
	}
	username, err = validate.Username(username)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "username: "+err.Error())
		return "", "", "", false
	}
	password, err = validate.Password(password)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "password: "+err.Error())
		return "", "", "", false
	}
	return email, username, password, true
}

// Signup handles POST /signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email, username, password, ok := credentials(w, r, req.Email, req.Username, req.Password)
	if !ok {
		return
	}

	_, err := h.accounts.Signup(r.Context(), email, username, password)
	switch {
	case errors.Is(err, user.ErrDuplicateUser):
		WriteError(w, r.Context(), http.StatusConflict, ErrCodeDuplicateUser, "Email or username already exists")
		return
	case err != nil:
		writeInternal(w, r, "signup failed", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

// Login handles POST /login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

// AdminLogin handles POST /admin/login. Non-admin accounts get the same 401
// as a wrong password.
func (h *AuthHandlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request, admin bool) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "email and password are required")
		return
	}
	// A malformed address cannot belong to an account.
	email, err := validate.Email(req.Email)
	if err != nil {
		email = req.Email
	}

	var u *user.User
	if admin {
		u, err = h.accounts.AdminLogin(r.Context(), email, req.Password)
	} else {
		u, err = h.accounts.Login(r.Context(), email, req.Password)
	}
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		msg := "Invalid email or password"
		if admin {
			msg = "Invalid email or password or not an admin user"
		}
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, msg)
		return
	case err != nil:
		writeInternal(w, r, "login failed", err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		writeInternal(w, r, "failed to issue access token", err)
		return
	}

	resp := LoginResponse{
		Message:     "Login successful",
		Username:    u.Username,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(auth.AccessTokenExpiry.Seconds()),
	}
	if admin {
		resp.Message = "Admin login successful"
		resp.IsAdmin = true
	}
	writeJSON(w, r, http.StatusOK, resp)
}
