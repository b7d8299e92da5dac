package services

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/omovigho/student-finance-tracker/internal/config"
)

// EmailSender dispatches plain-text emails. Implementations are best-effort;
// callers log failures and move on.
type EmailSender interface {
	Send(to, subject, body string) error
}

// smtpSender sends email over SMTP using the configured relay.
type smtpSender struct {
	cfg *config.Config
}

// NewSMTPSender creates an EmailSender backed by the configured SMTP relay.
func NewSMTPSender(cfg *config.Config) EmailSender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}
	return e.Send(addr, auth)
}
