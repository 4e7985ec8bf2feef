package store

import (
	"fmt"
	"sort"
	"time"

	"dealerwatch/internal/models"
)

// AlertRepo provides append/update over alert records.
type AlertRepo struct {
	s    *Store
	path string
}

// Save appends a new alert.
func (r *AlertRepo) Save(a *models.Alert) error {
	return update(r.s, r.path, func(alerts []models.Alert) ([]models.Alert, error) {
		return append(alerts, *a), nil
	})
}

// Update applies mutate to the stored alert under the collection lock.
func (r *AlertRepo) Update(id string, mutate func(*models.Alert)) (*models.Alert, error) {
	var out *models.Alert
	err := update(r.s, r.path, func(alerts []models.Alert) ([]models.Alert, error) {
		for i := range alerts {
			if alerts[i].ID == id {
				mutate(&alerts[i])
				cp := alerts[i]
				out = &cp
				return alerts, nil
			}
		}
		return nil, fmt.Errorf("alert %s: %w", id, ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every stored alert.
func (r *AlertRepo) All() ([]models.Alert, error) {
	return readAll[models.Alert](r.s, r.path)
}

// ListByProfile returns a profile's alerts filtered by resolution state,
// newest first.
func (r *AlertRepo) ListByProfile(profileID string, resolved bool) ([]models.Alert, error) {
	all, err := readAll[models.Alert](r.s, r.path)
	if err != nil {
		return nil, err
	}
	var filtered []models.Alert
	for _, a := range all {
		if a.ProfileID == profileID && a.Resolved == resolved {
			filtered = append(filtered, a)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return filtered, nil
}

// FindOpen returns the unresolved alert matching (profile, type, level), or
// ErrNotFound. This is the dedup lookup: while such a row exists, recurrences
// only advance its LastSeen.
func (r *AlertRepo) FindOpen(profileID, alertType, level string) (*models.Alert, error) {
	all, err := readAll[models.Alert](r.s, r.path)
	if err != nil {
		return nil, err
	}
	for i := range all {
		a := &all[i]
		if a.ProfileID == profileID && a.Type == alertType && a.Level == level && !a.Resolved {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

// ResolveOutside marks every unresolved alert for the profile whose type is
// not in the active set as resolved at the given time, and reports how many
// were closed. Used by the recovery path: when a condition clears, its alert
// closes itself.
func (r *AlertRepo) ResolveOutside(profileID string, activeTypes map[string]bool, at time.Time) (int, error) {
	closed := 0
	err := update(r.s, r.path, func(alerts []models.Alert) ([]models.Alert, error) {
		for i := range alerts {
			a := &alerts[i]
			if a.ProfileID != profileID || a.Resolved || activeTypes[a.Type] {
				continue
			}
			a.Resolved = true
			t := at
			a.ResolvedAt = &t
			closed++
		}
		return alerts, nil
	})
	if err != nil {
		return 0, err
	}
	return closed, nil
}
