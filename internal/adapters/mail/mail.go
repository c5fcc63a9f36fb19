// Package mail sends campaign email. The SMTP sender covers real delivery;
// the log sender stands in for it during development.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/prsim/prsim/pkg/logger"
)

// Sender delivers one message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

// NewSMTPSender builds a sender for the given relay. Username may be empty
// for relays without authentication.
func NewSMTPSender(host string, port int, from, username, password string) *SMTPSender {
	s := &SMTPSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

// LogSender logs messages instead of delivering them.
type LogSender struct {
	log logger.Logger
}

// NewLogSender builds a development sender.
func NewLogSender() *LogSender {
	return &LogSender{log: logger.Named("mail")}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info(ctx, "email (not sent)",
		logger.String("to", to),
		logger.String("subject", subject),
		logger.Int("body_chars", len(body)))
	return nil
}
