package alerting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dealerwatch/internal/logging"
	"dealerwatch/internal/models"
	"dealerwatch/internal/store"
)

// Notifier delivers a newly created alert and reports which channels
// succeeded. Delivery is best effort; an empty string means none did.
type Notifier interface {
	SendAlert(ctx context.Context, profile *models.Profile, alert *models.Alert) string
}

// Deduplicator enforces the one-open-alert rule: while an unresolved alert
// exists for a (profile, type, level), repeated occurrences only advance its
// last-seen timestamp, and notifications go out only for the first
// occurrence. When a condition clears, its open alert resolves itself.
type Deduplicator struct {
	store    *store.Store
	notifier Notifier
	log      *zap.SugaredLogger
}

// NewDeduplicator wires the deduplicator to its store and notifier.
func NewDeduplicator(s *store.Store, n Notifier) *Deduplicator {
	return &Deduplicator{store: s, notifier: n, log: logging.Named("alerting")}
}

// Process evaluates the rule set against a fresh result and reconciles the
// profile's alert rows. Store errors degrade the single profile's pass; they
// are returned for logging but the caller's loop continues.
func (d *Deduplicator) Process(ctx context.Context, profile *models.Profile, result *models.CheckResult) error {
	rules, err := d.store.Rules.ListEnabled()
	if err != nil {
		return err
	}

	now := time.Now()
	triggered := EvaluateRules(rules, result)
	activeTypes := make(map[string]bool, len(triggered))

	for _, trig := range triggered {
		activeTypes[trig.Rule.AlertType] = true

		existing, err := d.store.Alerts.FindOpen(profile.ID, trig.Rule.AlertType, trig.Rule.Level)
		switch {
		case err == nil:
			// Same issue still present: no new row, no re-notification.
			if _, uerr := d.store.Alerts.Update(existing.ID, func(a *models.Alert) {
				a.LastSeen = now
				a.ResultID = result.ID
			}); uerr != nil {
				return uerr
			}

		case errors.Is(err, store.ErrNotFound):
			if cerr := d.createAndNotify(ctx, profile, result, trig, now); cerr != nil {
				return cerr
			}

		default:
			return err
		}
	}

	closed, err := d.store.Alerts.ResolveOutside(profile.ID, activeTypes, now)
	if err != nil {
		return err
	}
	if closed > 0 {
		d.log.Infow("alerts auto-resolved on recovery",
			"profile_id", profile.ID, "closed", closed)
	}
	return nil
}

func (d *Deduplicator) createAndNotify(ctx context.Context, profile *models.Profile, result *models.CheckResult, trig Trigger, now time.Time) error {
	alert := &models.Alert{
		ID:        uuid.New().String(),
		ProfileID: profile.ID,
		ResultID:  result.ID,
		RuleID:    trig.Rule.ID,
		Level:     trig.Rule.Level,
		Type:      trig.Rule.AlertType,
		Message:   trig.Message,
		CreatedAt: now,
		LastSeen:  now,
	}

	// Persist before notifying: a delivery hang or crash must not lose the
	// alert row.
	if err := d.store.Alerts.Save(alert); err != nil {
		return err
	}
	d.log.Infow("alert created",
		"profile_id", profile.ID, "alert_type", alert.Type, "level", alert.Level)

	method := d.notifier.SendAlert(ctx, profile, alert)
	if method == "" {
		return nil
	}
	_, err := d.store.Alerts.Update(alert.ID, func(a *models.Alert) {
		a.NotificationSent = true
		a.NotificationMethod = method
	})
	return err
}
