package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dealerwatch/internal/models"
	"dealerwatch/internal/store"
)

// HandleListAlerts returns a profile's alerts. ?resolved=true switches from
// the open set to the history.
func HandleListAlerts(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolved := r.URL.Query().Get("resolved") == "true"
		alerts, err := s.Alerts.ListByProfile(chi.URLParam(r, "id"), resolved)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load alerts")
			return
		}
		if alerts == nil {
			alerts = []models.Alert{}
		}
		respondJSON(w, http.StatusOK, alerts)
	}
}

// HandleAcknowledgeAlert records who has seen the alert. The alert stays
// open; recurrence keeps advancing last_seen.
func HandleAcknowledgeAlert(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		user := currentUser(r)
		alert, err := s.Alerts.Update(chi.URLParam(r, "alertID"), func(a *models.Alert) {
			a.Acknowledged = true
			a.AcknowledgedBy = user
			a.AcknowledgedAt = &now
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "alert not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to acknowledge alert")
			return
		}
		respondJSON(w, http.StatusOK, alert)
	}
}

// HandleResolveAlert closes an alert manually. If the condition still holds,
// the next pass opens a fresh alert and notifies again.
func HandleResolveAlert(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		alert, err := s.Alerts.Update(chi.URLParam(r, "alertID"), func(a *models.Alert) {
			a.Resolved = true
			a.ResolvedAt = &now
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "alert not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to resolve alert")
			return
		}
		respondJSON(w, http.StatusOK, alert)
	}
}

// HandleListRules returns the alert rule set.
func HandleListRules(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := s.Rules.List()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load rules")
			return
		}
		respondJSON(w, http.StatusOK, rules)
	}
}
