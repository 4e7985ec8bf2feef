package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"dealerwatch/internal/config"
)

// SMTPProvider sends alert emails through a plain SMTP relay.
type SMTPProvider struct {
	cfg config.SMTPConfig
}

// NewSMTPProvider builds the email channel from server configuration.
func NewSMTPProvider(cfg config.SMTPConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

func (s *SMTPProvider) Name() string { return "email" }

func (s *SMTPProvider) Available() bool {
	return s.cfg.Host != "" && s.cfg.From != ""
}

func (s *SMTPProvider) Send(ctx context.Context, to string, msg *Message) error {
	if to == "" {
		return fmt.Errorf("no recipient email address")
	}

	recipients := strings.Split(to, ",")
	for i, r := range recipients {
		recipients[i] = strings.TrimSpace(r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, recipients, []byte(b.String())); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
