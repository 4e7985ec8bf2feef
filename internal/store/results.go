package store

import (
	"sort"

	"dealerwatch/internal/models"
)

// ResultRepo provides append/query over check results. Results are immutable
// once saved.
type ResultRepo struct {
	s    *Store
	path string
}

// Save appends a result and trims the collection to the retention cap,
// dropping the oldest entries first.
func (r *ResultRepo) Save(result *models.CheckResult) error {
	return update(r.s, r.path, func(results []models.CheckResult) ([]models.CheckResult, error) {
		results = append(results, *result)
		if len(results) > resultCap {
			results = results[len(results)-resultCap:]
		}
		return results, nil
	})
}

// ListByProfile returns the most recent results for a profile, newest first,
// capped at limit.
func (r *ResultRepo) ListByProfile(profileID string, limit int) ([]models.CheckResult, error) {
	all, err := readAll[models.CheckResult](r.s, r.path)
	if err != nil {
		return nil, err
	}

	var filtered []models.CheckResult
	for _, res := range all {
		if res.ProfileID == profileID {
			filtered = append(filtered, res)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CheckTimestamp.After(filtered[j].CheckTimestamp)
	})
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// Latest returns the newest result for a profile, or ErrNotFound if the
// profile has never completed a check.
func (r *ResultRepo) Latest(profileID string) (*models.CheckResult, error) {
	results, err := r.ListByProfile(profileID, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return &results[0], nil
}

// Count returns the total number of stored results across all profiles.
func (r *ResultRepo) Count() (int, error) {
	all, err := readAll[models.CheckResult](r.s, r.path)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}
