// Package mail forwards contact form submissions to the site operator.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Subject is the subject line of every forwarded submission.
const Subject = "New Contact Form Submission"

// ErrHeaderInjection is returned when a field that ends up in a mail header
// contains a line break.
var ErrHeaderInjection = errors.New("mail field contains line break")

// Message is one contact form submission.
type Message struct {
	Name  string
	Email string
	Body  string
}

// Validate rejects messages whose header-bound fields contain CR or LF.
func (m Message) Validate() error {
	if strings.ContainsAny(m.Name, "\r\n") || strings.ContainsAny(m.Email, "\r\n") {
		return ErrHeaderInjection
	}
	return nil
}

// Text renders the plain text body.
func (m Message) Text() string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nMessage: %s", m.Name, m.Email, m.Body)
}

// Relay delivers contact messages.
type Relay interface {
	Send(ctx context.Context, msg Message) error
}

// LogRelay logs messages instead of delivering them. Used when no SMTP host
// is configured.
type LogRelay struct {
	logger *slog.Logger
}

// NewLogRelay creates a LogRelay. A nil logger uses slog.Default.
func NewLogRelay(logger *slog.Logger) *LogRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRelay{logger: logger}
}

// Send logs msg.
func (r *LogRelay) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "contact message (not delivered, no SMTP host configured)",
		"subject", Subject,
		"name", msg.Name,
		"email", msg.Email,
		"length", len(msg.Body),
	)
	return nil
}
