package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"dealerwatch/internal/config"
)

// smsBodyLimit keeps messages to a single SMS segment plus a little room.
const smsBodyLimit = 300

// SMSProvider sends text messages through a Twilio-compatible REST API.
type SMSProvider struct {
	cfg    config.SMSConfig
	client *http.Client
}

// NewSMSProvider builds the SMS channel from server configuration.
func NewSMSProvider(cfg config.SMSConfig) *SMSProvider {
	return &SMSProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *SMSProvider) Name() string { return "sms" }

func (s *SMSProvider) Available() bool {
	return s.cfg.AccountSID != "" && s.cfg.AuthToken != "" && s.cfg.FromNumber != ""
}

// truncateSMS caps the body at smsBodyLimit bytes without splitting a UTF-8
// rune; alert subjects start with multi-byte emoji.
func truncateSMS(body string) string {
	if len(body) <= smsBodyLimit {
		return body
	}
	cut := smsBodyLimit - 3
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}

func (s *SMSProvider) Send(ctx context.Context, to string, msg *Message) error {
	if to == "" {
		return fmt.Errorf("no recipient phone number")
	}

	body := truncateSMS(msg.Subject + "\n" + msg.Body)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, s.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms api status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
