package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealerwatch/internal/logging"
	"dealerwatch/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logging.SetNop()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func testProfile(name string) *models.Profile {
	return &models.Profile{
		DealerName:     name,
		WebsiteURL:     "https://example.com",
		CheckFrequency: 60,
	}
}

func TestProfileCRUD(t *testing.T) {
	s := newTestStore(t)

	p := testProfile("Acme Motors")
	require.NoError(t, s.Profiles.Create(p))
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.Enabled, "new profiles start with monitoring enabled")

	got, err := s.Profiles.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Motors", got.DealerName)

	updated, err := s.Profiles.Update(p.ID, func(pr *models.Profile) {
		pr.DealerName = "Acme Motors LLC"
		pr.ID = "should-not-stick"
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Motors LLC", updated.DealerName)
	assert.Equal(t, p.ID, updated.ID, "profile IDs are immutable")

	require.NoError(t, s.Profiles.Delete(p.ID))
	_, err = s.Profiles.Get(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileCreateValidates(t *testing.T) {
	s := newTestStore(t)

	p := testProfile("No URL")
	p.WebsiteURL = "not-a-url"
	assert.Error(t, s.Profiles.Create(p))

	p = testProfile("Bad Frequency")
	p.CheckFrequency = 0
	assert.Error(t, s.Profiles.Create(p))
}

// Concurrent writers must never lose updates: every append survives even when
// all goroutines race on the same collection file.
func TestConcurrentWritesAreAtomic(t *testing.T) {
	s := newTestStore(t)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r := &models.CheckResult{
				ID:             fmt.Sprintf("r-%d", n),
				ProfileID:      "p1",
				CheckTimestamp: time.Now(),
				OverallStatus:  models.StatusGreen,
			}
			errs <- s.Results.Save(r)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := s.Results.Count()
	require.NoError(t, err)
	assert.Equal(t, writers, count)
}

func TestResultRetentionTrimsOldestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().Add(-2 * time.Hour)
	for i := 0; i < resultCap+5; i++ {
		r := &models.CheckResult{
			ID:             fmt.Sprintf("r-%d", i),
			ProfileID:      "p1",
			CheckTimestamp: base.Add(time.Duration(i) * time.Second),
			OverallStatus:  models.StatusGreen,
		}
		require.NoError(t, s.Results.Save(r))
	}

	count, err := s.Results.Count()
	require.NoError(t, err)
	assert.Equal(t, resultCap, count)

	latest, err := s.Results.Latest("p1")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("r-%d", resultCap+4), latest.ID, "newest result survives trimming")

	results, err := s.Results.ListByProfile("p1", 0)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "r-0", r.ID, "oldest results are trimmed first")
	}
}

func TestAlertOpenLookupAndResolve(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	a := &models.Alert{
		ID:        "a1",
		ProfileID: "p1",
		Type:      "website_down",
		Level:     models.StatusRed,
		CreatedAt: now,
		LastSeen:  now,
	}
	require.NoError(t, s.Alerts.Save(a))

	found, err := s.Alerts.FindOpen("p1", "website_down", models.StatusRed)
	require.NoError(t, err)
	assert.Equal(t, "a1", found.ID)

	_, err = s.Alerts.FindOpen("p1", "ssl_invalid", models.StatusRed)
	assert.ErrorIs(t, err, ErrNotFound)

	// Recovery: the condition cleared, so the open alert closes itself.
	closed, err := s.Alerts.ResolveOutside("p1", map[string]bool{}, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	_, err = s.Alerts.FindOpen("p1", "website_down", models.StatusRed)
	assert.ErrorIs(t, err, ErrNotFound)

	resolved, err := s.Alerts.ListByProfile("p1", true)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.NotNil(t, resolved[0].ResolvedAt)
}

func TestAlertResolveOutsideKeepsActiveTypes(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	for _, typ := range []string{"website_down", "slow_response"} {
		require.NoError(t, s.Alerts.Save(&models.Alert{
			ID:        "a-" + typ,
			ProfileID: "p1",
			Type:      typ,
			Level:     models.StatusRed,
			CreatedAt: now,
			LastSeen:  now,
		}))
	}

	closed, err := s.Alerts.ResolveOutside("p1", map[string]bool{"website_down": true}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	still, err := s.Alerts.FindOpen("p1", "website_down", models.StatusRed)
	require.NoError(t, err)
	assert.False(t, still.Resolved)
}

func TestDefaultRulesSeededOnce(t *testing.T) {
	dir := t.TempDir()
	logging.SetNop()

	s, err := Open(dir)
	require.NoError(t, err)

	rules, err := s.Rules.List()
	require.NoError(t, err)
	assert.Len(t, rules, len(models.DefaultRules()))

	// Reopening the same directory must not duplicate or reset the rules.
	s2, err := Open(dir)
	require.NoError(t, err)
	rules2, err := s2.Rules.List()
	require.NoError(t, err)
	assert.Equal(t, rules, rules2)
}

func TestMissingFilesReadAsEmpty(t *testing.T) {
	s := newTestStore(t)

	profiles, err := s.Profiles.List()
	require.NoError(t, err)
	assert.Empty(t, profiles)

	count, err := s.Results.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
