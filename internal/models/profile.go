package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AlertPreferences controls which notification channels a dealer receives.
type AlertPreferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
}

// Profile represents a monitored dealer website and its alerting configuration.
type Profile struct {
	ID               string           `json:"id"`
	DealerID         string           `json:"dealer_id"`
	DealerName       string           `json:"dealer_name"`
	WebsiteURL       string           `json:"website_url"`
	ContactEmail     string           `json:"contact_email"`
	AlertEmail       string           `json:"alert_email"`
	AlertPhone       string           `json:"alert_phone"`
	AlertPreferences AlertPreferences `json:"alert_preferences"`
	CheckFrequency   int              `json:"check_frequency"` // minutes
	Enabled          bool             `json:"monitoring_enabled"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	LastCheck        time.Time        `json:"last_check,omitempty"`
}

// NewProfileID derives a unique profile ID from the current time, matching the
// millisecond-timestamp IDs used by existing installations.
func NewProfileID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// Validate checks the fields the monitoring core depends on.
func (p *Profile) Validate() error {
	if p.DealerName == "" {
		return fmt.Errorf("dealer_name is required")
	}
	if p.CheckFrequency <= 0 {
		return fmt.Errorf("check_frequency must be positive, got %d", p.CheckFrequency)
	}
	u, err := url.Parse(p.WebsiteURL)
	if err != nil {
		return fmt.Errorf("invalid website_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("website_url must start with http:// or https://")
	}
	if u.Hostname() == "" {
		return fmt.Errorf("website_url must have a hostname")
	}
	return nil
}

// Due reports whether the profile is due for a check at the given time.
// A profile that has never been checked is immediately due, which gives
// natural catch-up semantics after a restart.
func (p *Profile) Due(now time.Time) bool {
	if !p.Enabled {
		return false
	}
	if p.LastCheck.IsZero() {
		return true
	}
	return now.Sub(p.LastCheck) >= time.Duration(p.CheckFrequency)*time.Minute
}

// IsSecure reports whether the profile URL is served over HTTPS.
func (p *Profile) IsSecure() bool {
	return strings.HasPrefix(strings.ToLower(p.WebsiteURL), "https://")
}
