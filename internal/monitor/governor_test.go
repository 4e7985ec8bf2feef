package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernorBoundsConcurrency(t *testing.T) {
	g := NewGovernor(2)

	require.NoError(t, g.Acquire(context.Background(), "p1"))
	require.NoError(t, g.Acquire(context.Background(), "p2"))
	assert.Equal(t, HealthBusy, g.Health())

	// A third acquire must block until a slot frees.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, g.Acquire(ctx, "p3"))

	g.Release("p1", false)
	assert.Equal(t, HealthHealthy, g.Health())
	require.NoError(t, g.Acquire(context.Background(), "p3"))

	g.Release("p2", true)
	g.Release("p3", false)

	m := g.Snapshot()
	assert.Zero(t, m.InFlight)
	assert.Equal(t, int64(2), m.CompletedChecks)
	assert.Equal(t, int64(1), m.FailedChecks)
}

func TestGovernorSnapshotTracksActiveProfiles(t *testing.T) {
	g := NewGovernor(5)
	require.NoError(t, g.Acquire(context.Background(), "p1"))

	m := g.Snapshot()
	assert.Equal(t, 1, m.InFlight)
	assert.Contains(t, m.ActiveProfiles, "p1")

	g.Release("p1", false)
}

func TestGovernorRecommendations(t *testing.T) {
	g := NewGovernor(5)

	assert.Empty(t, g.Recommendations(10))
	assert.Len(t, g.Recommendations(35), 1)
	assert.Len(t, g.Recommendations(60), 1)
}
