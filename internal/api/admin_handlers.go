package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/onnwee/cropadvisor/internal/audit"
	"github.com/onnwee/cropadvisor/internal/middleware"
	"github.com/onnwee/cropadvisor/internal/user"
	"github.com/onnwee/cropadvisor/internal/validate"
)

// CreateUserRequest is the body of POST /admin/create-user/.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest is the body of PUT /admin/update-user/.
// Empty new values leave the field unchanged.
type UpdateUserRequest struct {
	Username    string `json:"username"`
	NewUsername string `json:"new_username,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}

// DeleteUserRequest is the body of DELETE /admin/delete-user/.
type DeleteUserRequest struct {
	Username string `json:"username"`
}

// AdminActionRequest is the body of the promote and demote endpoints.
type AdminActionRequest struct {
	AdminEmail string `json:"admin_email"`
	Username   string `json:"username"`
}

// UserView is the public projection of an account.
type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// UsersResponse is the body of GET /admin/users/.
type UsersResponse struct {
	Users []UserView `json:"users"`
}

// AuditLogResponse is the body of GET /admin/audit-log/.
type AuditLogResponse struct {
	Entries []*audit.Entry `json:"entries"`
}

// Audit log page sizes.
const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// AdminHandlers serves account management. Every route is mounted behind
// middleware.RequireAdmin.
type AdminHandlers struct {
	accounts Accounts
	trail    audit.Repository
}

// NewAdminHandlers creates a new AdminHandlers instance. trail may be nil,
// which disables auditing.
func NewAdminHandlers(accounts Accounts, trail audit.Repository) *AdminHandlers {
	return &AdminHandlers{accounts: accounts, trail: trail}
}

// record appends the outcome of an account change to the audit trail.
// The change has already happened, so a failed append is logged rather than
// turned into an error response.
func (h *AdminHandlers) record(r *http.Request, action, target string, err error) {
	if h.trail == nil {
		return
	}
	outcome := audit.OutcomeSuccess
	if err != nil {
		outcome = audit.OutcomeFailure
	}
	if _, appendErr := h.trail.Append(r.Context(), audit.FromRequest(r, action, target, outcome)); appendErr != nil {
		slog.ErrorContext(r.Context(), "failed to append audit entry", "action", action, "target", target, "error", appendErr)
	}
}

// CreateUser handles POST /admin/create-user/.
func (h *AdminHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email, username, password, ok := credentials(w, r, req.Email, req.Username, req.Password)
	if !ok {
		return
	}

	_, err := h.accounts.CreateUser(r.Context(), username, email, password)
	h.record(r, audit.ActionCreateUser, username, err)
	switch {
	case errors.Is(err, user.ErrDuplicateUser):
		WriteError(w, r.Context(), http.StatusConflict, ErrCodeDuplicateUser, "Email or username already exists")
		return
	case err != nil:
		writeInternal(w, r, "admin user creation failed", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, MessageResponse{Message: "User created successfully"})
}

// ListUsers handles GET /admin/users/.
func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	users, err := h.accounts.List(r.Context())
	if err != nil {
		writeInternal(w, r, "failed to list users", err)
		return
	}

	resp := UsersResponse{Users: make([]UserView, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, UserView{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			IsAdmin:  u.IsAdmin,
		})
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// UpdateUser handles PUT /admin/update-user/.
func (h *AdminHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}

	var req UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "username is required")
		return
	}

	newUsername := ""
	if strings.TrimSpace(req.NewUsername) != "" {
		var err error
		if newUsername, err = validate.Username(req.NewUsername); err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "new_username: "+err.Error())
			return
		}
	}
	if req.NewPassword != "" {
		if _, err := validate.Password(req.NewPassword); err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "new_password: "+err.Error())
			return
		}
	}

	err := h.accounts.Update(r.Context(), username, newUsername, req.NewPassword)
	h.record(r, audit.ActionUpdateUser, username, err)
	if h.writeUserError(w, r, err, "user update failed") {
		return
	}

	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "User details updated successfully"})
}

// DeleteUser handles DELETE /admin/delete-user/.
func (h *AdminHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodDelete) {
		return
	}

	var req DeleteUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "username is required")
		return
	}

	err := h.accounts.Delete(r.Context(), username)
	h.record(r, audit.ActionDeleteUser, username, err)
	if h.writeUserError(w, r, err, "user deletion failed") {
		return
	}

	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// PromoteUser handles PUT /admin/promote-user/.
func (h *AdminHandlers) PromoteUser(w http.ResponseWriter, r *http.Request) {
	req, ok := h.adminAction(w, r)
	if !ok {
		return
	}

	err := h.accounts.Promote(r.Context(), req.AdminEmail, req.Username)
	h.record(r, audit.ActionPromoteUser, req.Username, err)
	if h.writeUserError(w, r, err, "user promotion failed") {
		return
	}

	writeJSON(w, r, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("User '%s' promoted to admin successfully", req.Username),
	})
}

// DemoteUser handles PUT /admin/demote-user/.
func (h *AdminHandlers) DemoteUser(w http.ResponseWriter, r *http.Request) {
	req, ok := h.adminAction(w, r)
	if !ok {
		return
	}

	err := h.accounts.Demote(r.Context(), req.AdminEmail, req.Username)
	h.record(r, audit.ActionDemoteUser, req.Username, err)
	if h.writeUserError(w, r, err, "user demotion failed") {
		return
	}

	writeJSON(w, r, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("User '%s' has been demoted successfully", req.Username),
	})
}

// AuditLog handles GET /admin/audit-log/?limit=N, newest entries first.
func (h *AdminHandlers) AuditLog(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAuditLimit {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation,
				fmt.Sprintf("limit must be an integer between 1 and %d", maxAuditLimit))
			return
		}
		limit = n
	}

	resp := AuditLogResponse{Entries: []*audit.Entry{}}
	if h.trail != nil {
		entries, err := h.trail.List(r.Context(), limit)
		if err != nil {
			writeInternal(w, r, "failed to list audit entries", err)
			return
		}
		if entries != nil {
			resp.Entries = entries
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// adminAction decodes a promote/demote body. admin_email must name the
// caller: a token cannot act on behalf of another admin.
func (h *AdminHandlers) adminAction(w http.ResponseWriter, r *http.Request) (AdminActionRequest, bool) {
	var req AdminActionRequest
	if !requireMethod(w, r, http.MethodPut) {
		return req, false
	}
	if !decodeJSON(w, r, &req) {
		return req, false
	}

	adminEmail, err := validate.Email(req.AdminEmail)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "admin_email: "+err.Error())
		return req, false
	}
	req.AdminEmail = adminEmail
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "username is required")
		return req, false
	}

	if caller := middleware.GetUserEmail(r.Context()); caller != "" && !strings.EqualFold(caller, adminEmail) {
		WriteError(w, r.Context(), http.StatusForbidden, ErrCodeForbidden, "admin_email does not match the authenticated admin")
		return req, false
	}
	return req, true
}

// writeUserError maps account errors to responses. It reports whether a
// response was written.
func (h *AdminHandlers) writeUserError(w http.ResponseWriter, r *http.Request, err error, logMsg string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, user.ErrUserNotFound):
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeUserNotFound, "User not found")
	case errors.Is(err, user.ErrDuplicateUser):
		WriteError(w, r.Context(), http.StatusConflict, ErrCodeDuplicateUser, "Username already exists")
	case errors.Is(err, user.ErrNotAdmin):
		WriteError(w, r.Context(), http.StatusForbidden, ErrCodeForbidden, "Access denied. Admin rights required.")
	default:
		writeInternal(w, r, logMsg, err)
	}
	return true
}
