// Package job holds background work: the deadline reminder job and the
// scheduler that triggers it once a day.
package job

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/taskshare/task-api/internal/config"
)

// Mailer sends plain-text mail to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg    config.MailConfig
	logger *slog.Logger
}

// NewSMTPMailer creates an SMTPMailer for the given relay configuration.
func NewSMTPMailer(cfg config.MailConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "smtp_mailer")),
	}
}

var _ Mailer = (*SMTPMailer)(nil)

// Send implements Mailer. The context is accepted for interface symmetry;
// net/smtp has no context support, so cancellation only short-circuits
// before the dial.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := composeMessage(m.cfg.From, to, subject, body, time.Now())
	if err != nil {
		return fmt.Errorf("failed to compose message: %w", err)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	m.logger.Debug("mail sent", slog.String("subject", subject))
	return nil
}

// composeMessage renders an RFC 5322 message with a single inline
// plain-text part.
func composeMessage(from, to, subject, body string, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(subject)

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, body); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
