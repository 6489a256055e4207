// Package mailer sends the site's operational emails: inquiry notices to the
// business and booking confirmations to customers.
package mailer

import (
	"context"

	"github.com/diagnosis/festa-decor/pkg/config"
	"github.com/diagnosis/festa-decor/pkg/logger"
)

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Service interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// New picks a transport: logs in dev mode, MailerSend when an API key is
// set, SMTP otherwise.
func New(cfg config.EmailConfig) Service {
	switch {
	case cfg.DevMode:
		logger.Info("Mailer in dev mode, emails are logged")
		return LogMailer{}
	case cfg.MailerSendKey != "":
		return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	default:
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) (string, error) {
	logger.InfoContext(ctx, "Email (dev mode)",
		"to", msg.ToEmail,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return "", nil
}
