package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/cropadvisor/internal/mail"
	"github.com/onnwee/cropadvisor/internal/validate"
)

// EmailRequest is the body of POST /send-email/.
type EmailRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactHandlers relays contact form submissions.
type ContactHandlers struct {
	relay mail.Relay
}

// NewContactHandlers creates a new ContactHandlers instance.
func NewContactHandlers(relay mail.Relay) *ContactHandlers {
	return &ContactHandlers{relay: relay}
}

// SendEmail handles POST /send-email/.
func (h *ContactHandlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name, err := validate.ContactName(req.Name)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "name: "+err.Error())
		return
	}
	email, err := validate.Email(req.Email)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "email: "+err.Error())
		return
	}
	body, err := validate.ContactMessage(req.Message)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "message: "+err.Error())
		return
	}

	err = h.relay.Send(r.Context(), mail.Message{Name: name, Email: email, Body: body})
	switch {
	case errors.Is(err, mail.ErrHeaderInjection):
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "mail relay failed", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeMailFailed, "Error sending email")
		return
	}

	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "Email sent successfully"})
}
