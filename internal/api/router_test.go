package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dealerwatch/internal/config"
	"dealerwatch/internal/fetch"
	"dealerwatch/internal/logging"
	"dealerwatch/internal/models"
	"dealerwatch/internal/monitor"
	"dealerwatch/internal/store"
	"dealerwatch/internal/websocket"
)

type greenFetcher struct{}

func (greenFetcher) Fetch(ctx context.Context, url string) (*fetch.Result, error) {
	return &fetch.Result{
		HTML: `<html><body><form><input></form><a href="/inventory">Cars</a>
		<p>(555) 123-4567</p></body></html>`,
		StatusCode:   200,
		ResponseTime: 100 * time.Millisecond,
		Method:       "direct",
	}, nil
}

type silentNotifier struct{}

func (silentNotifier) SendAlert(ctx context.Context, p *models.Profile, a *models.Alert) string {
	return ""
}

func newTestServer(t *testing.T) (*httptest.Server, *config.Config, *store.Store) {
	t.Helper()
	logging.SetNop()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Environment:       "test",
		JWTSecret:         "test-secret-test-secret-test-secret",
		CORSOrigins:       []string{"http://localhost:3000"},
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
	}

	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	// The real validator resolves DNS; tests stand in the hostname screen
	// without touching the network.
	prevValidator := validateTargetURL
	validateTargetURL = func(raw string) error {
		if strings.Contains(raw, "169.254.169.254") || strings.Contains(raw, "localhost") {
			return errors.New("target address is not allowed")
		}
		return nil
	}
	t.Cleanup(func() { validateTargetURL = prevValidator })

	hub := websocket.NewHub(cfg.JWTSecret, cfg.CORSOrigins)
	governor := monitor.NewGovernor(2)
	engine := monitor.NewEngine(greenFetcher{}, s, noAlerts{}, nil)
	scheduler := monitor.NewScheduler(s, engine, governor, time.Minute)

	srv := httptest.NewServer(NewRouter(cfg, s, hub, scheduler, governor))
	t.Cleanup(srv.Close)
	return srv, cfg, s
}

type noAlerts struct{}

func (noAlerts) Process(ctx context.Context, p *models.Profile, r *models.CheckResult) error {
	return nil
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	body, _ := json.Marshal(LoginRequest{Username: "admin", Password: "hunter2"})
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lr LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lr))
	require.NotEmpty(t, lr.Token)
	return lr.Token
}

func authedRequest(t *testing.T, method, url, token string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body, _ := json.Marshal(LoginRequest{Username: "admin", Password: "wrong"})
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/profiles")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileLifecycleOverHTTP(t *testing.T) {
	srv, _, _ := newTestServer(t)
	token := login(t, srv)

	create, _ := json.Marshal(map[string]interface{}{
		"dealer_name":     "Acme Motors",
		"website_url":     "https://acmemotors.example.com",
		"check_frequency": 30,
	})
	resp := authedRequest(t, http.MethodPost, srv.URL+"/api/profiles", token, create)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Enabled)

	resp = authedRequest(t, http.MethodGet, srv.URL+"/api/profiles", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profiles []models.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profiles))
	resp.Body.Close()
	require.Len(t, profiles, 1)

	resp = authedRequest(t, http.MethodDelete, srv.URL+"/api/profiles/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateProfileRejectsInternalTargets(t *testing.T) {
	srv, _, _ := newTestServer(t)
	token := login(t, srv)

	create, _ := json.Marshal(map[string]interface{}{
		"dealer_name":     "Sneaky",
		"website_url":     "http://169.254.169.254/latest/meta-data/",
		"check_frequency": 30,
	})
	resp := authedRequest(t, http.MethodPost, srv.URL+"/api/profiles", token, create)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusRollupCountsLights(t *testing.T) {
	srv, _, s := newTestServer(t)
	token := login(t, srv)

	p := &models.Profile{DealerName: "Acme", WebsiteURL: "https://acme.example.com", CheckFrequency: 30}
	require.NoError(t, s.Profiles.Create(p))
	require.NoError(t, s.Results.Save(&models.CheckResult{
		ID:             models.NewResultID(time.Now()),
		ProfileID:      p.ID,
		CheckTimestamp: time.Now(),
		OverallStatus:  models.StatusYellow,
	}))

	resp := authedRequest(t, http.MethodGet, srv.URL+"/api/status", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rollup StatusRollup
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rollup))
	resp.Body.Close()

	require.Len(t, rollup.Profiles, 1)
	assert.Equal(t, models.StatusYellow, rollup.Profiles[0].OverallStatus)
	assert.Equal(t, 1, rollup.Yellow)
}

func TestMonitoringHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	token := login(t, srv)

	resp := authedRequest(t, http.MethodGet, srv.URL+"/api/monitoring/health", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health MonitoringHealth
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()

	assert.Equal(t, monitor.HealthHealthy, health.Status)
	assert.Equal(t, 2, health.Metrics.MaxConcurrent)
}
