package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/cropadvisor/internal/mail"
	"github.com/onnwee/cropadvisor/internal/middleware"
)

func validEmail() EmailRequest {
	return EmailRequest{
		Name:    "Asha",
		Email:   "Asha@Example.com",
		Message: "When should I sow chickpea?",
	}
}

func TestSendEmail(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/send-email/", validEmail(), nil)
	assertMessage(t, w, http.StatusOK, "Email sent successfully")

	if s.relay.count() != 1 {
		t.Fatalf("relay received %d messages, want 1", s.relay.count())
	}
	got := s.relay.sent[0]
	want := mail.Message{Name: "Asha", Email: "asha@example.com", Body: "When should I sow chickpea?"}
	if got != want {
		t.Errorf("relayed %+v, want %+v", got, want)
	}
}

func TestSendEmail_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EmailRequest)
	}{
		{"missing name", func(r *EmailRequest) { r.Name = "" }},
		{"invalid email", func(r *EmailRequest) { r.Email = "asha" }},
		{"empty message", func(r *EmailRequest) { r.Message = "" }},
		{"message too long", func(r *EmailRequest) { r.Message = strings.Repeat("a", 5001) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			req := validEmail()
			tt.mutate(&req)

			w := s.do(t, http.MethodPost, "/send-email/", req, nil)
			assertError(t, w, http.StatusBadRequest, ErrCodeValidation)
			if s.relay.count() != 0 {
				t.Error("invalid submission reached the relay")
			}
		})
	}
}

func TestSendEmail_RelayErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"header injection", mail.ErrHeaderInjection, http.StatusBadRequest, ErrCodeValidation},
		{"smtp failure", fmt.Errorf("smtp dial: %w", errors.New("connection refused")), http.StatusInternalServerError, ErrCodeMailFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.relay.err = tt.err

			w := s.do(t, http.MethodPost, "/send-email/", validEmail(), nil)
			assertError(t, w, tt.status, tt.code)
			if strings.Contains(w.Body.String(), "connection refused") {
				t.Error("relay error leaked to the client")
			}
		})
	}
}

func TestSendEmail_IdempotentRetry(t *testing.T) {
	s := newTestServer(t)
	key := http.Header{middleware.IdempotencyKeyHeader: {"contact-7f3a"}}

	first := s.do(t, http.MethodPost, "/send-email/", validEmail(), key)
	assertMessage(t, first, http.StatusOK, "Email sent successfully")

	retry := s.do(t, http.MethodPost, "/send-email", validEmail(), key)
	assertMessage(t, retry, http.StatusOK, "Email sent successfully")
	if retry.Header().Get(middleware.IdempotentReplayedHeader) != "true" {
		t.Error("retry was not marked as replayed")
	}
	if s.relay.count() != 1 {
		t.Errorf("relay received %d messages, want 1", s.relay.count())
	}

	changed := validEmail()
	changed.Message = "Different question"
	w := s.do(t, http.MethodPost, "/send-email/", changed, key)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("reused key status = %d, want 422", w.Code)
	}
}

func TestSendEmail_RateLimited(t *testing.T) {
	limits := DefaultRateLimits()
	limits.Contact = middleware.RateLimitConfig{Name: "contact", RequestsPerWindow: 1, WindowDuration: time.Minute}
	s := newTestServer(t, withRateLimits(limits))

	w := s.do(t, http.MethodPost, "/send-email/", validEmail(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	w = s.do(t, http.MethodPost, "/send-email/", validEmail(), nil)
	assertError(t, w, http.StatusTooManyRequests, ErrCodeRateLimited)
}
