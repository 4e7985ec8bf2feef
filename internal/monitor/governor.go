// Package monitor runs the check passes: the engine executes one full pass
// for a profile, the governor bounds how many run at once, and the scheduler
// decides when profiles are due.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Health states reported by the governor.
const (
	HealthHealthy = "healthy"
	HealthBusy    = "busy"
)

// Metrics is a point-in-time view of check throughput.
type Metrics struct {
	InFlight        int            `json:"in_flight"`
	MaxConcurrent   int            `json:"max_concurrent"`
	CompletedChecks int64          `json:"completed_checks"`
	FailedChecks    int64          `json:"failed_checks"`
	AvgDurationSec  float64        `json:"avg_duration_seconds"`
	ActiveProfiles  map[string]int `json:"active_profiles"` // profile id -> seconds running
}

// Governor bounds concurrent check passes with a weighted semaphore and
// tracks throughput for the health endpoint.
type Governor struct {
	sem *semaphore.Weighted
	max int

	mu            sync.Mutex
	inFlight      int
	completed     int64
	failed        int64
	totalDuration time.Duration
	active        map[string]time.Time
}

// NewGovernor bounds concurrency at maxConcurrent simultaneous checks.
func NewGovernor(maxConcurrent int) *Governor {
	return &Governor{
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		max:    maxConcurrent,
		active: make(map[string]time.Time),
	}
}

// Acquire blocks until a check slot is free or ctx is done.
func (g *Governor) Acquire(ctx context.Context, profileID string) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.mu.Lock()
	g.inFlight++
	g.active[profileID] = time.Now()
	g.mu.Unlock()
	return nil
}

// Release returns the slot and folds the pass into the running averages.
func (g *Governor) Release(profileID string, failed bool) {
	g.mu.Lock()
	if start, ok := g.active[profileID]; ok {
		g.totalDuration += time.Since(start)
		delete(g.active, profileID)
	}
	g.inFlight--
	if failed {
		g.failed++
	} else {
		g.completed++
	}
	g.mu.Unlock()
	g.sem.Release(1)
}

// Snapshot returns current metrics.
func (g *Governor) Snapshot() Metrics {
	g.mu.Lock()
	defer g.mu.Unlock()

	m := Metrics{
		InFlight:        g.inFlight,
		MaxConcurrent:   g.max,
		CompletedChecks: g.completed,
		FailedChecks:    g.failed,
		ActiveProfiles:  make(map[string]int, len(g.active)),
	}
	now := time.Now()
	for id, start := range g.active {
		m.ActiveProfiles[id] = int(now.Sub(start).Seconds())
	}
	if done := g.completed + g.failed; done > 0 {
		m.AvgDurationSec = g.totalDuration.Seconds() / float64(done)
	}
	return m
}

// Health reports healthy until every check slot is occupied.
func (g *Governor) Health() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight >= g.max {
		return HealthBusy
	}
	return HealthHealthy
}

// Recommendations suggests capacity tuning for the current fleet size.
func (g *Governor) Recommendations(profileCount int) []string {
	var recs []string
	m := g.Snapshot()

	if profileCount > 50 {
		recs = append(recs, fmt.Sprintf(
			"monitoring %d profiles; consider raising MAX_CONCURRENT_CHECKS above %d or splitting across instances",
			profileCount, m.MaxConcurrent))
	} else if profileCount > 30 {
		recs = append(recs, fmt.Sprintf(
			"monitoring %d profiles; watch check latency as the fleet grows", profileCount))
	}
	if m.AvgDurationSec > 10 {
		recs = append(recs, fmt.Sprintf(
			"average check takes %.1fs; slow sites may be starving the schedule", m.AvgDurationSec))
	}
	return recs
}
