package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dealerwatch/internal/models"
	"dealerwatch/internal/store"
)

const defaultResultLimit = 50

// HandleListResults returns a profile's check history, newest first.
// ?limit=N caps the page; the default is 50.
func HandleListResults(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultResultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				respondError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		results, err := s.Results.ListByProfile(chi.URLParam(r, "id"), limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load results")
			return
		}
		if results == nil {
			results = []models.CheckResult{}
		}
		respondJSON(w, http.StatusOK, results)
	}
}

// HandleLatestResult returns a profile's most recent check result.
func HandleLatestResult(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.Results.Latest(chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "no results for profile")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to load result")
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}
