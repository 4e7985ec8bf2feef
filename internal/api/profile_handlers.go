package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dealerwatch/internal/fetch"
	"dealerwatch/internal/models"
	"dealerwatch/internal/monitor"
	"dealerwatch/internal/store"
)

// validateTargetURL screens operator-supplied URLs before they become fetch
// targets. Overridable in tests to avoid DNS.
var validateTargetURL = fetch.ValidateTargetURL

// HandleListProfiles returns every monitored profile.
func HandleListProfiles(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := s.Profiles.List()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load profiles")
			return
		}
		if profiles == nil {
			profiles = []models.Profile{}
		}
		respondJSON(w, http.StatusOK, profiles)
	}
}

// HandleCreateProfile registers a new dealer site for monitoring. The URL is
// screened against internal and metadata addresses before it is accepted.
func HandleCreateProfile(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p models.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := p.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validateTargetURL(p.WebsiteURL); err != nil {
			respondError(w, http.StatusBadRequest, "website_url rejected: "+err.Error())
			return
		}
		if err := s.Profiles.Create(&p); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to save profile")
			return
		}
		respondJSON(w, http.StatusCreated, p)
	}
}

// HandleGetProfile returns one profile by id.
func HandleGetProfile(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.Profiles.Get(chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "profile not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to load profile")
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

// HandleUpdateProfile replaces the mutable fields of a profile.
func HandleUpdateProfile(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.Profile
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := in.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validateTargetURL(in.WebsiteURL); err != nil {
			respondError(w, http.StatusBadRequest, "website_url rejected: "+err.Error())
			return
		}

		updated, err := s.Profiles.Update(chi.URLParam(r, "id"), func(p *models.Profile) {
			p.DealerID = in.DealerID
			p.DealerName = in.DealerName
			p.WebsiteURL = in.WebsiteURL
			p.ContactEmail = in.ContactEmail
			p.AlertEmail = in.AlertEmail
			p.AlertPhone = in.AlertPhone
			p.AlertPreferences = in.AlertPreferences
			p.CheckFrequency = in.CheckFrequency
			p.Enabled = in.Enabled
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "profile not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to update profile")
			return
		}
		respondJSON(w, http.StatusOK, updated)
	}
}

// HandleDeleteProfile removes a profile. Its historical results and alerts
// are kept for reporting.
func HandleDeleteProfile(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Profiles.Delete(chi.URLParam(r, "id")); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "profile not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to delete profile")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"message": "profile deleted"})
	}
}

// CheckRunner runs an immediate check pass for one profile.
type CheckRunner interface {
	CheckNow(ctx context.Context, profileID string) (*models.CheckResult, error)
}

// HandleCheckNow triggers an immediate pass for a profile, still gated by
// the concurrency governor.
func HandleCheckNow(runner CheckRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		result, err := runner.CheckNow(ctx, chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "profile not found")
				return
			}
			if errors.Is(err, monitor.ErrCheckInProgress) {
				respondError(w, http.StatusConflict, "a check for this profile is already running")
				return
			}
			respondError(w, http.StatusInternalServerError, "check failed: "+err.Error())
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}
