package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"dealerwatch/internal/logging"
	"dealerwatch/internal/models"
	"dealerwatch/internal/store"
)

// ErrCheckInProgress is returned by CheckNow when a pass for the same
// profile is still running.
var ErrCheckInProgress = errors.New("check already in progress")

// Scheduler periodically scans the profile list and launches a check pass
// for every profile whose frequency has elapsed. Per-profile frequencies are
// resolved at scan time, so a profile checked every 15 minutes and one
// checked daily coexist under a single scan loop.
type Scheduler struct {
	cron     *cron.Cron
	store    *store.Store
	engine   *Engine
	governor *Governor
	interval time.Duration
	log      *zap.SugaredLogger

	mu       sync.Mutex
	checking map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler builds the scan loop; Start arms it.
func NewScheduler(s *store.Store, engine *Engine, governor *Governor, scanInterval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(),
		store:    s,
		engine:   engine,
		governor: governor,
		interval: scanInterval,
		log:      logging.Named("scheduler"),
		checking: make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins scanning. The first scan runs immediately so profiles that
// came due while the server was down are caught up without waiting a tick.
func (s *Scheduler) Start() error {
	schedule := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(schedule, s.scan); err != nil {
		return fmt.Errorf("schedule scan: %w", err)
	}
	if _, err := s.cron.AddFunc("15 3 * * *", s.housekeeping); err != nil {
		return fmt.Errorf("schedule housekeeping: %w", err)
	}
	s.cron.Start()
	s.log.Infow("scheduler started", "scan_interval", s.interval.String())

	go s.scan()
	return nil
}

// housekeeping closes open alerts whose profile has been deleted. Result
// retention needs no sweep here; the store trims on every save.
func (s *Scheduler) housekeeping() {
	profiles, err := s.store.Profiles.List()
	if err != nil {
		s.log.Errorw("housekeeping: profile list failed", "error", err)
		return
	}
	known := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		known[p.ID] = true
	}

	alerts, err := s.store.Alerts.All()
	if err != nil {
		s.log.Errorw("housekeeping: alert list failed", "error", err)
		return
	}

	now := time.Now()
	orphaned := 0
	for _, a := range alerts {
		if a.Resolved || known[a.ProfileID] {
			continue
		}
		if _, err := s.store.Alerts.Update(a.ID, func(al *models.Alert) {
			al.Resolved = true
			al.ResolvedAt = &now
		}); err != nil {
			s.log.Errorw("housekeeping: resolve failed", "alert_id", a.ID, "error", err)
			continue
		}
		orphaned++
	}
	if orphaned > 0 {
		s.log.Infow("housekeeping closed orphaned alerts", "count", orphaned)
	}
}

// Stop halts scanning and aborts in-flight governor waits. Checks already
// running finish on their own.
func (s *Scheduler) Stop() {
	s.cancel()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Infow("scheduler stopped")
}

// beginCheck claims the per-profile check slot. A profile still mid-pass
// from an earlier scan stays claimed, so a check that outlasts the scan
// interval is never dispatched against itself.
func (s *Scheduler) beginCheck(profileID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checking[profileID] {
		return false
	}
	s.checking[profileID] = true
	return true
}

func (s *Scheduler) endCheck(profileID string) {
	s.mu.Lock()
	delete(s.checking, profileID)
	s.mu.Unlock()
}

// scan launches a check for every due profile. Each check runs in its own
// goroutine gated by the governor; one slow or panicking profile never
// delays the rest of the fleet.
func (s *Scheduler) scan() {
	profiles, err := s.store.Profiles.List()
	if err != nil {
		s.log.Errorw("profile scan failed", "error", err)
		return
	}

	now := time.Now()
	due := 0
	for i := range profiles {
		p := profiles[i]
		if !p.Due(now) {
			continue
		}
		if !s.beginCheck(p.ID) {
			s.log.Debugw("check still running, skipping dispatch", "profile_id", p.ID)
			continue
		}
		due++
		go s.runOne(p)
	}
	if due > 0 {
		s.log.Infow("scan dispatched checks", "due", due, "total", len(profiles))
	}
}

func (s *Scheduler) runOne(profile models.Profile) {
	defer s.endCheck(profile.ID)

	if err := s.governor.Acquire(s.ctx, profile.ID); err != nil {
		// Shutdown while waiting for a slot.
		return
	}

	failed := false
	defer func() {
		if r := recover(); r != nil {
			failed = true
			s.log.Errorw("check panicked", "profile_id", profile.ID, "panic", r)
		}
		s.governor.Release(profile.ID, failed)
	}()

	if _, err := s.engine.CheckProfile(s.ctx, &profile); err != nil {
		failed = true
		s.log.Errorw("check failed", "profile_id", profile.ID, "error", err)
	}
}

// CheckNow runs an immediate pass for one profile, bypassing the due filter
// but not the governor. Used by the manual-trigger API.
func (s *Scheduler) CheckNow(ctx context.Context, profileID string) (*models.CheckResult, error) {
	profile, err := s.store.Profiles.Get(profileID)
	if err != nil {
		return nil, err
	}
	if !s.beginCheck(profile.ID) {
		return nil, fmt.Errorf("profile %s: %w", profile.ID, ErrCheckInProgress)
	}
	defer s.endCheck(profile.ID)

	if err := s.governor.Acquire(ctx, profile.ID); err != nil {
		return nil, err
	}
	var result *models.CheckResult
	failed := false
	defer func() { s.governor.Release(profile.ID, failed) }()

	result, err = s.engine.CheckProfile(ctx, profile)
	if err != nil {
		failed = true
		return nil, err
	}
	return result, nil
}
