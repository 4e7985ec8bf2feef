// Package alerting turns check results into deduplicated, notified alerts.
package alerting

import (
	"dealerwatch/internal/logging"
	"dealerwatch/internal/models"
)

// Trigger is one rule that fired for a result, with its rendered message.
type Trigger struct {
	Rule    models.AlertRule
	Message string
}

// EvaluateRules runs every enabled rule against the result. A malformed rule
// (unknown field, threshold that cannot be compared) is logged and skipped so
// one bad row in the rule file cannot take down alerting for every profile.
func EvaluateRules(rules []models.AlertRule, result *models.CheckResult) []Trigger {
	var triggered []Trigger
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		match, err := rule.Matches(result)
		if err != nil {
			logging.Named("alerting").Warnw("skipping malformed alert rule",
				"rule_id", rule.ID, "rule_name", rule.Name, "error", err)
			continue
		}
		if match {
			triggered = append(triggered, Trigger{
				Rule:    rule,
				Message: rule.FormatMessage(result),
			})
		}
	}
	return triggered
}
