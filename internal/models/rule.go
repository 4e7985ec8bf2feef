package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Rule conditions.
const (
	CondEquals      = "equals"
	CondGreaterThan = "greater_than"
	CondLessThan    = "less_than"
	CondContains    = "contains"
)

// AlertRule is a data-driven health policy rule evaluated against every
// check result. Rules are loaded once at startup; the default set encodes
// the product's health policy.
type AlertRule struct {
	ID              int         `json:"id"`
	Name            string      `json:"rule_name"`
	Category        string      `json:"rule_category"`
	CheckType       string      `json:"check_type"` // CheckResult field key
	AlertType       string      `json:"alert_type"`
	Condition       string      `json:"condition"`
	Threshold       interface{} `json:"threshold_value"`
	Level           string      `json:"alert_level"`
	MessageTemplate string      `json:"alert_message_template"`
	Enabled         bool        `json:"enabled"`
}

// Matches evaluates the rule against a check result. Malformed rules
// (unknown field, unusable threshold) return an error so the caller can skip
// them without crashing the pass.
func (ru *AlertRule) Matches(result *CheckResult) (bool, error) {
	value, ok := result.Field(ru.CheckType)
	if !ok {
		return false, fmt.Errorf("rule %d inspects unknown field %q", ru.ID, ru.CheckType)
	}

	switch ru.Condition {
	case CondEquals:
		return fmt.Sprint(value) == fmt.Sprint(ru.Threshold), nil
	case CondGreaterThan, CondLessThan:
		v, err := toFloat(value)
		if err != nil {
			return false, fmt.Errorf("rule %d: %w", ru.ID, err)
		}
		t, err := toFloat(ru.Threshold)
		if err != nil {
			return false, fmt.Errorf("rule %d threshold: %w", ru.ID, err)
		}
		if ru.Condition == CondGreaterThan {
			return v > t, nil
		}
		return v < t, nil
	case CondContains:
		return strings.Contains(fmt.Sprint(value), fmt.Sprint(ru.Threshold)), nil
	default:
		return false, fmt.Errorf("rule %d has unknown condition %q", ru.ID, ru.Condition)
	}
}

var templateField = regexp.MustCompile(`\{(\w+)\}`)

// FormatMessage substitutes {field} placeholders in the rule's message
// template with values from the result.
func (ru *AlertRule) FormatMessage(result *CheckResult) string {
	return templateField.ReplaceAllStringFunc(ru.MessageTemplate, func(m string) string {
		key := strings.Trim(m, "{}")
		value, ok := result.Field(key)
		if !ok || value == nil {
			return "Unknown"
		}
		return fmt.Sprint(value)
	})
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case bool:
		return 0, fmt.Errorf("boolean value %v is not numeric", n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}

// DefaultRules returns the built-in health policy, seeded into the rules
// collection on first run.
func DefaultRules() []AlertRule {
	return []AlertRule{
		{ID: 1, Name: "Website Down", Category: "uptime", AlertType: "website_down", CheckType: "is_reachable", Condition: CondEquals, Threshold: false, Level: StatusRed, MessageTemplate: "CRITICAL: Website is unreachable - customers cannot access your site!", Enabled: true},
		{ID: 2, Name: "SSL Certificate Invalid", Category: "security", AlertType: "ssl_invalid", CheckType: "ssl_valid", Condition: CondEquals, Threshold: false, Level: StatusRed, MessageTemplate: "CRITICAL: SSL certificate is invalid - browsers showing security warnings!", Enabled: true},
		{ID: 3, Name: "Forms Not Working", Category: "content", AlertType: "forms_not_working", CheckType: "forms_working", Condition: CondEquals, Threshold: false, Level: StatusRed, MessageTemplate: "CRITICAL: Contact forms not working - losing potential leads!", Enabled: true},
		{ID: 4, Name: "No Inventory", Category: "content", AlertType: "no_inventory", CheckType: "inventory_count", Condition: CondEquals, Threshold: 0, Level: StatusRed, MessageTemplate: "CRITICAL: No inventory showing on website!", Enabled: true},
		{ID: 5, Name: "Server Error", Category: "uptime", AlertType: "server_error", CheckType: "http_status_code", Condition: CondGreaterThan, Threshold: 499, Level: StatusRed, MessageTemplate: "CRITICAL: Website returning server errors!", Enabled: true},
		{ID: 6, Name: "Extremely Slow", Category: "performance", AlertType: "extreme_load_time", CheckType: "load_time_seconds", Condition: CondGreaterThan, Threshold: 10, Level: StatusRed, MessageTemplate: "CRITICAL: Website taking over 10 seconds to load!", Enabled: true},
		{ID: 7, Name: "SSL Expiring Soon", Category: "security", AlertType: "ssl_expiring_soon", CheckType: "ssl_expiry_days", Condition: CondLessThan, Threshold: 30, Level: StatusYellow, MessageTemplate: "WARNING: SSL certificate expires in {ssl_expiry_days} days", Enabled: true},
		{ID: 8, Name: "Slow Response", Category: "performance", AlertType: "slow_response", CheckType: "response_time_ms", Condition: CondGreaterThan, Threshold: 3000, Level: StatusYellow, MessageTemplate: "WARNING: Website response time over 3 seconds", Enabled: true},
		{ID: 9, Name: "Low Inventory", Category: "content", AlertType: "low_inventory", CheckType: "inventory_count", Condition: CondLessThan, Threshold: 50, Level: StatusYellow, MessageTemplate: "WARNING: Low inventory count ({inventory_count} vehicles)", Enabled: true},
		{ID: 10, Name: "Poor Mobile Score", Category: "performance", AlertType: "poor_mobile_score", CheckType: "mobile_score", Condition: CondLessThan, Threshold: 70, Level: StatusYellow, MessageTemplate: "WARNING: Mobile performance score is {mobile_score}/100", Enabled: true},
		{ID: 11, Name: "Large Page Size", Category: "performance", AlertType: "large_page_size", CheckType: "page_size_kb", Condition: CondGreaterThan, Threshold: 5000, Level: StatusYellow, MessageTemplate: "WARNING: Homepage is {page_size_kb}KB - may load slowly", Enabled: true},
	}
}
