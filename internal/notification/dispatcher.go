package notification

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"dealerwatch/internal/config"
	"dealerwatch/internal/logging"
	"dealerwatch/internal/models"
)

// Dispatcher routes a new alert to the channels the dealer signed up for.
// Email goes out for any level when the dealer opted in; SMS is reserved for
// RED alerts so a slow page never wakes anyone at 3am.
type Dispatcher struct {
	log *zap.SugaredLogger
}

// NewDispatcher registers the configured providers and returns the router.
func NewDispatcher(cfg *config.Config) *Dispatcher {
	RegisterProvider(NewSMTPProvider(cfg.SMTP))
	RegisterProvider(NewSMSProvider(cfg.SMS))
	return &Dispatcher{log: logging.Named("notify")}
}

// SendAlert delivers the alert and returns the comma-joined channel names
// that succeeded. A channel failure is logged and skipped; delivery is best
// effort and must never block alert persistence.
func (d *Dispatcher) SendAlert(ctx context.Context, profile *models.Profile, alert *models.Alert) string {
	msg := FormatAlertMessage(profile, alert)
	var sent []string

	if d.shouldEmail(profile, alert) {
		if d.deliver(ctx, "email", d.emailAddress(profile), msg, profile) {
			sent = append(sent, "email")
		}
	}
	if d.shouldSMS(profile, alert) {
		if d.deliver(ctx, "sms", profile.AlertPhone, msg, profile) {
			sent = append(sent, "sms")
		}
	}

	if len(sent) == 0 {
		d.log.Infow("alert stored without notification",
			"profile_id", profile.ID, "alert_type", alert.Type, "level", alert.Level)
	}
	return strings.Join(sent, ",")
}

func (d *Dispatcher) deliver(ctx context.Context, name, to string, msg *Message, profile *models.Profile) bool {
	p, ok := GetProvider(name)
	if !ok || !p.Available() {
		return false
	}
	if err := p.Send(ctx, to, msg); err != nil {
		d.log.Warnw("notification delivery failed",
			"provider", name, "profile_id", profile.ID, "error", err)
		return false
	}
	d.log.Infow("notification sent", "provider", name, "profile_id", profile.ID)
	return true
}

func (d *Dispatcher) shouldEmail(profile *models.Profile, alert *models.Alert) bool {
	if d.emailAddress(profile) == "" {
		return false
	}
	// RED alerts always try email; the preference gates YELLOW noise only.
	return profile.AlertPreferences.Email || alert.Level == models.StatusRed
}

func (d *Dispatcher) shouldSMS(profile *models.Profile, alert *models.Alert) bool {
	return alert.Level == models.StatusRed &&
		profile.AlertPreferences.SMS &&
		profile.AlertPhone != ""
}

func (d *Dispatcher) emailAddress(profile *models.Profile) string {
	if profile.AlertEmail != "" {
		return profile.AlertEmail
	}
	return profile.ContactEmail
}
