// Package email delivers transactional mail over SMTP.
package email

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"job-tracker/internal/config"
	"job-tracker/internal/domain/user"
	"job-tracker/internal/logger"
)

type SMTPMailer struct {
	from string
	send func(m *gomail.Message) error
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if cfg.Insecure {
		dialer.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &SMTPMailer{
		from: cfg.From,
		send: func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

// NewMailerWithSender delivers through s instead of dialing SMTP.
func NewMailerWithSender(from string, s gomail.Sender) *SMTPMailer {
	return &SMTPMailer{
		from: from,
		send: func(m *gomail.Message) error { return gomail.Send(s, m) },
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg *user.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}

	if err := m.send(gm); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Email sent",
		zap.String("event", "email_sent"),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
