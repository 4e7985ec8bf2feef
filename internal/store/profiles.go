package store

import (
	"fmt"
	"time"

	"dealerwatch/internal/models"
)

// ProfileRepo provides CRUD over monitored-site profiles.
type ProfileRepo struct {
	s    *Store
	path string
}

// List returns all profiles.
func (r *ProfileRepo) List() ([]models.Profile, error) {
	return readAll[models.Profile](r.s, r.path)
}

// Get returns the profile with the given ID.
func (r *ProfileRepo) Get(id string) (*models.Profile, error) {
	profiles, err := r.List()
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if profiles[i].ID == id {
			return &profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
}

// Create assigns an ID and timestamps and appends the profile.
func (r *ProfileRepo) Create(p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	now := time.Now()
	p.ID = models.NewProfileID(now)
	p.Enabled = true
	p.CreatedAt = now
	p.UpdatedAt = now

	return update(r.s, r.path, func(profiles []models.Profile) ([]models.Profile, error) {
		// Two creates in the same millisecond would collide; nudge forward
		// until the ID is unique within the collection.
		bump := time.Millisecond
		for containsProfileID(profiles, p.ID) {
			p.ID = models.NewProfileID(now.Add(bump))
			bump += time.Millisecond
		}
		return append(profiles, *p), nil
	})
}

func containsProfileID(profiles []models.Profile, id string) bool {
	for i := range profiles {
		if profiles[i].ID == id {
			return true
		}
	}
	return false
}

// Update applies mutate to the stored profile under the collection lock and
// bumps UpdatedAt. The profile ID is immutable; mutate cannot change it.
func (r *ProfileRepo) Update(id string, mutate func(*models.Profile)) (*models.Profile, error) {
	var out *models.Profile
	err := update(r.s, r.path, func(profiles []models.Profile) ([]models.Profile, error) {
		for i := range profiles {
			if profiles[i].ID == id {
				mutate(&profiles[i])
				profiles[i].ID = id
				profiles[i].UpdatedAt = time.Now()
				cp := profiles[i]
				out = &cp
				return profiles, nil
			}
		}
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TouchLastCheck records a completed check pass. Called unconditionally after
// every check, success or failure, so a persistently broken site does not
// hot-loop.
func (r *ProfileRepo) TouchLastCheck(id string, at time.Time) error {
	_, err := r.Update(id, func(p *models.Profile) {
		p.LastCheck = at
	})
	return err
}

// Delete removes the profile.
func (r *ProfileRepo) Delete(id string) error {
	return update(r.s, r.path, func(profiles []models.Profile) ([]models.Profile, error) {
		for i := range profiles {
			if profiles[i].ID == id {
				return append(profiles[:i], profiles[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	})
}
