package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleMatchesConditions(t *testing.T) {
	result := &CheckResult{
		IsReachable:    false,
		ResponseTimeMS: 4500,
		SSLExpiryDays:  12,
		InventoryCount: 30,
		ErrorDetails:   "upstream timeout from origin",
	}

	downRule := &AlertRule{ID: 1, CheckType: "is_reachable", Condition: CondEquals, Threshold: false}
	match, err := downRule.Matches(result)
	require.NoError(t, err)
	assert.True(t, match)

	slowRule := &AlertRule{ID: 8, CheckType: "response_time_ms", Condition: CondGreaterThan, Threshold: 3000}
	match, err = slowRule.Matches(result)
	require.NoError(t, err)
	assert.True(t, match)

	expiryRule := &AlertRule{ID: 7, CheckType: "ssl_expiry_days", Condition: CondLessThan, Threshold: 30}
	match, err = expiryRule.Matches(result)
	require.NoError(t, err)
	assert.True(t, match)

	containsRule := &AlertRule{ID: 99, CheckType: "error_details", Condition: CondContains, Threshold: "timeout"}
	match, err = containsRule.Matches(result)
	require.NoError(t, err)
	assert.True(t, match)
}

// Thresholds survive a JSON round trip as float64; comparisons must still
// work against the int fields they inspect.
func TestRuleMatchesAfterJSONRoundTrip(t *testing.T) {
	rule := &AlertRule{ID: 9, CheckType: "inventory_count", Condition: CondLessThan, Threshold: float64(50)}
	match, err := rule.Matches(&CheckResult{InventoryCount: 30})
	require.NoError(t, err)
	assert.True(t, match)

	eq := &AlertRule{ID: 4, CheckType: "inventory_count", Condition: CondEquals, Threshold: float64(0)}
	match, err = eq.Matches(&CheckResult{InventoryCount: 0})
	require.NoError(t, err)
	assert.True(t, match)
}

func TestRuleMatchesMalformedRules(t *testing.T) {
	unknown := &AlertRule{ID: 50, CheckType: "no_such_field", Condition: CondEquals, Threshold: 1}
	_, err := unknown.Matches(&CheckResult{})
	assert.Error(t, err)

	badThreshold := &AlertRule{ID: 51, CheckType: "response_time_ms", Condition: CondGreaterThan, Threshold: "fast"}
	_, err = badThreshold.Matches(&CheckResult{})
	assert.Error(t, err)

	badCondition := &AlertRule{ID: 52, CheckType: "response_time_ms", Condition: "matches", Threshold: 1}
	_, err = badCondition.Matches(&CheckResult{})
	assert.Error(t, err)
}

func TestRuleFormatMessage(t *testing.T) {
	rule := &AlertRule{MessageTemplate: "Response took {response_time_ms}ms (status {http_status_code})"}
	msg := rule.FormatMessage(&CheckResult{ResponseTimeMS: 4500, HTTPStatusCode: 200})
	assert.Equal(t, "Response took 4500ms (status 200)", msg)

	unknown := &AlertRule{MessageTemplate: "value: {nonexistent}"}
	assert.Equal(t, "value: Unknown", unknown.FormatMessage(&CheckResult{}))
}

func TestDefaultRulesCoverHealthPolicy(t *testing.T) {
	rules := DefaultRules()
	require.Len(t, rules, 11)

	byType := make(map[string]AlertRule, len(rules))
	for _, r := range rules {
		assert.True(t, r.Enabled, r.Name)
		byType[r.AlertType] = r
	}

	assert.Equal(t, StatusRed, byType["website_down"].Level)
	assert.Equal(t, StatusRed, byType["no_inventory"].Level)
	assert.Equal(t, StatusYellow, byType["ssl_expiring_soon"].Level)
	assert.Equal(t, StatusYellow, byType["slow_response"].Level)
}
