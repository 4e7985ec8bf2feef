package store

import (
	"os"

	"dealerwatch/internal/models"
)

// RuleRepo reads the alert rule set.
type RuleRepo struct {
	s    *Store
	path string
}

// List returns every stored rule.
func (r *RuleRepo) List() ([]models.AlertRule, error) {
	return readAll[models.AlertRule](r.s, r.path)
}

// ListEnabled returns only rules that are switched on.
func (r *RuleRepo) ListEnabled() ([]models.AlertRule, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	var enabled []models.AlertRule
	for _, rule := range all {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}
	return enabled, nil
}

// seedDefaults writes the default rule set on first start. An existing file,
// even one an operator has edited down to an empty list, is left alone.
func (r *RuleRepo) seedDefaults() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return r.s.withLock(r.path, func() error {
		if _, err := os.Stat(r.path); err == nil {
			return nil
		}
		return writeJSON(r.path, models.DefaultRules())
	})
}
