// Package mailer delivers verification codes and password reset links.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/dmitrijs2005/fundconnector/internal/logging"
)

var ErrEmptyRecipient = errors.New("empty recipient")

// Mailer is what the account flows need from outgoing mail.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string) error
	SendPasswordReset(ctx context.Context, to, link string) error
}

type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// New returns an SMTP mailer, or a LogMailer when no SMTP host is configured.
func New(cfg Config, logger logging.Logger) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		logger.Warn(context.Background(), "smtp host not configured, emails will only be logged")
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg, logger)
}

type SMTPMailer struct {
	cfg    Config
	logger logging.Logger
	send   func(m *gomail.Message) error
}

func NewSMTPMailer(cfg Config, logger logging.Logger) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	return &SMTPMailer{cfg: cfg, logger: logger, send: func(m *gomail.Message) error {
		return d.DialAndSend(m)
	}}
}

func (s *SMTPMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h2>Verify your email</h2>
  <p>Your verification code is:</p>
  <div style="font-size: 28px; font-weight: bold; letter-spacing: 4px;">
    %s
  </div>
  <p>The code expires in 15 minutes.</p>
</body>
</html>`, code)

	if err := s.deliver(ctx, to, "Verify your email - Open Allocators Network", body); err != nil {
		return err
	}
	s.logger.Info(ctx, "verification email sent", "to", to)
	return nil
}

func (s *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h2>Reset your password</h2>
  <p>Follow the link below to choose a new password.</p>
  <p>It is valid for one hour.</p>
  <p><a href="%[1]s">
    %[1]s
  </a></p>
  <p>If you did not request this, ignore this email.</p>
</body>
</html>`, link)

	if err := s.deliver(ctx, to, "Password reset - Open Allocators Network", body); err != nil {
		return err
	}
	s.logger.Info(ctx, "password reset email sent", "to", to)
	return nil
}

func (s *SMTPMailer) deliver(ctx context.Context, to, subject, html string) error {
	if strings.TrimSpace(to) == "" {
		return ErrEmptyRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	if err := s.send(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// LogMailer writes codes and links to the log instead of sending them.
// Used for local development.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (l *LogMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	if strings.TrimSpace(to) == "" {
		return ErrEmptyRecipient
	}
	l.logger.Info(ctx, "verification code (not sent)", "to", to, "code", code)
	return nil
}

func (l *LogMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	if strings.TrimSpace(to) == "" {
		return ErrEmptyRecipient
	}
	l.logger.Info(ctx, "password reset link (not sent)", "to", to, "link", link)
	return nil
}
