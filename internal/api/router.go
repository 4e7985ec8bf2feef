// Package api exposes the dashboard HTTP surface.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"dealerwatch/internal/config"
	"dealerwatch/internal/monitor"
	"dealerwatch/internal/store"
	"dealerwatch/internal/websocket"
)

// NewRouter assembles the HTTP surface: auth, profile CRUD, results, alerts,
// rules, status rollup, monitoring health, and the live websocket feed.
func NewRouter(cfg *config.Config, s *store.Store, hub *websocket.Hub, scheduler *monitor.Scheduler, governor *monitor.Governor) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(SecurityHeadersMiddleware(cfg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	apiLimiter := NewRateLimiter(rate.Limit(10), 30)
	loginLimiter := NewRateLimiter(rate.Limit(0.2), 5)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(loginLimiter.Middleware)
			r.Post("/auth/login", HandleLogin(cfg))
		})
		r.Post("/auth/logout", HandleLogout())

		r.Group(func(r chi.Router) {
			r.Use(apiLimiter.Middleware)
			r.Use(AuthMiddleware(cfg.JWTSecret))

			r.Get("/profiles", HandleListProfiles(s))
			r.Post("/profiles", HandleCreateProfile(s))
			r.Get("/profiles/{id}", HandleGetProfile(s))
			r.Put("/profiles/{id}", HandleUpdateProfile(s))
			r.Delete("/profiles/{id}", HandleDeleteProfile(s))
			r.Post("/profiles/{id}/check", HandleCheckNow(scheduler))

			r.Get("/profiles/{id}/results", HandleListResults(s))
			r.Get("/profiles/{id}/results/latest", HandleLatestResult(s))

			r.Get("/profiles/{id}/alerts", HandleListAlerts(s))
			r.Post("/alerts/{alertID}/acknowledge", HandleAcknowledgeAlert(s))
			r.Post("/alerts/{alertID}/resolve", HandleResolveAlert(s))

			r.Get("/rules", HandleListRules(s))
			r.Get("/status", HandleStatusRollup(s))
			r.Get("/monitoring/health", HandleMonitoringHealth(s, governor))
		})
	})

	r.Get("/ws", hub.HandleWebSocket)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
