package api

import (
	"errors"
	"net/http"
	"time"

	"dealerwatch/internal/models"
	"dealerwatch/internal/monitor"
	"dealerwatch/internal/store"
)

// ProfileStatus is one row of the fleet rollup.
type ProfileStatus struct {
	ProfileID     string     `json:"profile_id"`
	DealerName    string     `json:"dealer_name"`
	WebsiteURL    string     `json:"website_url"`
	Enabled       bool       `json:"monitoring_enabled"`
	OverallStatus string     `json:"overall_status"`
	LastCheck     *time.Time `json:"last_check,omitempty"`
	OpenAlerts    int        `json:"open_alerts"`
}

// StatusRollup summarizes the whole fleet for the dashboard landing view.
type StatusRollup struct {
	Profiles []ProfileStatus `json:"profiles"`
	Red      int             `json:"red"`
	Yellow   int             `json:"yellow"`
	Green    int             `json:"green"`
	Unknown  int             `json:"unknown"`
}

// HandleStatusRollup returns every profile's latest light plus fleet counts.
func HandleStatusRollup(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := s.Profiles.List()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load profiles")
			return
		}

		rollup := StatusRollup{Profiles: make([]ProfileStatus, 0, len(profiles))}
		for _, p := range profiles {
			row := ProfileStatus{
				ProfileID:     p.ID,
				DealerName:    p.DealerName,
				WebsiteURL:    p.WebsiteURL,
				Enabled:       p.Enabled,
				OverallStatus: "UNKNOWN",
			}
			if !p.LastCheck.IsZero() {
				t := p.LastCheck
				row.LastCheck = &t
			}

			latest, err := s.Results.Latest(p.ID)
			if err == nil {
				row.OverallStatus = latest.OverallStatus
			} else if !errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusInternalServerError, "failed to load results")
				return
			}

			open, err := s.Alerts.ListByProfile(p.ID, false)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "failed to load alerts")
				return
			}
			row.OpenAlerts = len(open)

			switch row.OverallStatus {
			case models.StatusRed:
				rollup.Red++
			case models.StatusYellow:
				rollup.Yellow++
			case models.StatusGreen:
				rollup.Green++
			default:
				rollup.Unknown++
			}
			rollup.Profiles = append(rollup.Profiles, row)
		}
		respondJSON(w, http.StatusOK, rollup)
	}
}

// MonitoringHealth is the governor's view of the system.
type MonitoringHealth struct {
	Status          string          `json:"status"`
	Metrics         monitor.Metrics `json:"metrics"`
	Recommendations []string        `json:"recommendations"`
}

// HandleMonitoringHealth reports check throughput and capacity advice.
func HandleMonitoringHealth(s *store.Store, g *monitor.Governor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := s.Profiles.List()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load profiles")
			return
		}

		health := MonitoringHealth{
			Status:          g.Health(),
			Metrics:         g.Snapshot(),
			Recommendations: g.Recommendations(len(profiles)),
		}
		if health.Recommendations == nil {
			health.Recommendations = []string{}
		}
		respondJSON(w, http.StatusOK, health)
	}
}
