package models

import "time"

// Alert is one distinct triggered rule occurrence for a profile. While the
// underlying issue persists, the same row is kept and LastSeen advances; a new
// row is only created once the previous one is resolved.
type Alert struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	ResultID  string `json:"result_id"`
	RuleID    int    `json:"rule_id"`

	Level   string `json:"alert_level"` // RED or YELLOW
	Type    string `json:"alert_type"`
	Message string `json:"alert_message"`

	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	Resolved       bool       `json:"resolved"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`

	NotificationSent   bool   `json:"notification_sent"`
	NotificationMethod string `json:"notification_method,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}
