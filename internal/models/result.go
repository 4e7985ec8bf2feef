package models

import (
	"strconv"
	"time"
)

// Health status values for a check pass.
const (
	StatusGreen  = "GREEN"
	StatusYellow = "YELLOW"
	StatusRed    = "RED"
)

// Issue is a single finding from a check pass. Severity uses the same
// RED/YELLOW scale as the overall status.
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
}

// CheckResult is one completed check pass for a profile. Results are immutable
// once saved; the store trims the oldest entries past the retention cap.
type CheckResult struct {
	ID             string    `json:"id"`
	ProfileID      string    `json:"profile_id"`
	CheckTimestamp time.Time `json:"check_timestamp"`
	OverallStatus  string    `json:"overall_status"`

	IsReachable    bool   `json:"is_reachable"`
	ResponseTimeMS int    `json:"response_time_ms"`
	HTTPStatusCode int    `json:"http_status_code"`

	SSLValid      bool `json:"ssl_valid"`
	SSLExpiryDays int  `json:"ssl_expiry_days"`
	CDNProtected  bool `json:"cdn_protected"`

	FormsWorking      bool `json:"forms_working"`
	PhoneNumbersValid bool `json:"phone_numbers_valid"`
	InventoryCount    int  `json:"inventory_count"`
	ExpiredOfferFound bool `json:"expired_offer_found"`

	PageSizeKB      int     `json:"page_size_kb"`
	LoadTimeSeconds float64 `json:"load_time_seconds"`
	MobileScore     int     `json:"mobile_score"`
	DesktopScore    int     `json:"desktop_score"`

	IssuesFound  []Issue `json:"issues_found"`
	FetchMethod  string  `json:"fetch_method,omitempty"`
	ErrorDetails string  `json:"error_details,omitempty"`
}

// NewResultID derives a result ID from the check timestamp.
func NewResultID(now time.Time) string {
	return strconv.FormatInt(now.UnixNano(), 10)
}

// Field returns the value of the named check-result field for alert-rule
// evaluation. The keys match the JSON field names the rule set was written
// against. Unknown keys return (nil, false).
func (r *CheckResult) Field(key string) (interface{}, bool) {
	switch key {
	case "is_reachable":
		return r.IsReachable, true
	case "response_time_ms":
		return r.ResponseTimeMS, true
	case "http_status_code":
		return r.HTTPStatusCode, true
	case "ssl_valid":
		return r.SSLValid, true
	case "ssl_expiry_days":
		return r.SSLExpiryDays, true
	case "forms_working":
		return r.FormsWorking, true
	case "phone_numbers_valid":
		return r.PhoneNumbersValid, true
	case "inventory_count":
		return r.InventoryCount, true
	case "expired_offer_found":
		return r.ExpiredOfferFound, true
	case "page_size_kb":
		return r.PageSizeKB, true
	case "load_time_seconds":
		return r.LoadTimeSeconds, true
	case "mobile_score":
		return r.MobileScore, true
	case "desktop_score":
		return r.DesktopScore, true
	case "overall_status":
		return r.OverallStatus, true
	case "error_details":
		return r.ErrorDetails, true
	default:
		return nil, false
	}
}
