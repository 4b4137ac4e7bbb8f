package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// ErrTLSUnavailable is returned when TLS is required but the server does not offer STARTTLS.
var ErrTLSUnavailable = errors.New("smtp server does not support STARTTLS")

// SMTPConfig configures an SMTPRelay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the envelope and header sender.
	From string
	// To receives every message. Defaults to From.
	To string
	// RequireTLS fails delivery when the server does not offer STARTTLS.
	RequireTLS bool
	// Timeout bounds the whole delivery when the context has no deadline.
	Timeout time.Duration
	// TLSConfig overrides the STARTTLS client config.
	TLSConfig *tls.Config
}

// DefaultSMTPTimeout is used when SMTPConfig.Timeout is zero.
const DefaultSMTPTimeout = 15 * time.Second

// SMTPRelay delivers messages over SMTP with STARTTLS and PLAIN auth.
type SMTPRelay struct {
	cfg SMTPConfig
	now func() time.Time
}

// NewSMTPRelay creates an SMTPRelay.
func NewSMTPRelay(cfg SMTPConfig) *SMTPRelay {
	if cfg.To == "" {
		cfg.To = cfg.From
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSMTPTimeout
	}
	return &SMTPRelay{cfg: cfg, now: time.Now}
}

// Send delivers msg to the configured recipient.
func (r *SMTPRelay) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(r.cfg.Host, strconv.Itoa(r.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to smtp server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, r.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake failed: %w", err)
	}
	defer c.Close()

	if err := r.deliver(c, msg); err != nil {
		return err
	}
	return c.Quit()
}

func (r *SMTPRelay) deliver(c *smtp.Client, msg Message) error {
	if ok, _ := c.Extension("STARTTLS"); ok {
		tlsCfg := r.cfg.TLSConfig
		if tlsCfg == nil {
			tlsCfg = &tls.Config{ServerName: r.cfg.Host, MinVersion: tls.VersionTLS12}
		}
		if err := c.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
	} else if r.cfg.RequireTLS {
		return ErrTLSUnavailable
	}

	if r.cfg.Username != "" {
		auth := smtp.PlainAuth("", r.cfg.Username, r.cfg.Password, r.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := c.Mail(r.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM rejected: %w", err)
	}
	if err := c.Rcpt(r.cfg.To); err != nil {
		return fmt.Errorf("smtp RCPT TO rejected: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA rejected: %w", err)
	}
	if _, err := w.Write(r.compose(msg)); err != nil {
		w.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp server rejected message: %w", err)
	}
	return nil
}

// compose renders the RFC 5322 message with CRLF line endings.
func (r *SMTPRelay) compose(msg Message) []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}
	header("From", r.cfg.From)
	header("To", r.cfg.To)
	if msg.Email != "" {
		header("Reply-To", msg.Email)
	}
	header("Subject", Subject)
	header("Date", r.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	b.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Text(), "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
