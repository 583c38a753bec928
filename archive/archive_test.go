package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"focus-server/models"
	"focus-server/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var when = time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)

func TestCommitAndRead(t *testing.T) {
	a, err := Open(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)

	days, err := a.Days()
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = a.Commit(models.TrackingData{
		"2026-01-01": {"github.com": {Visits: 3, TimeSpent: 600}},
		"2026-01-02": {"x.com": {Visits: 1, TimeSpent: 5}},
	}, when)
	require.NoError(t, err)

	_, err = a.Commit(models.TrackingData{
		"2026-01-03": {"docs.go.dev": {Visits: 2, TimeSpent: 120}},
	}, when.Add(24*time.Hour))
	require.NoError(t, err)

	days, err = a.Days()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-01", "2026-01-02", "2026-01-03"}, days)

	day, err := a.Day("2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, models.SiteStats{Visits: 3, TimeSpent: 600}, day["github.com"])

	_, err = a.Day("2025-12-31")
	assert.ErrorIs(t, err, ErrDayNotArchived)

	n, err := a.Commits()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCommitEmptyIsNoop(t *testing.T) {
	a, err := Open(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)

	hash, err := a.Commit(nil, when)
	require.NoError(t, err)
	assert.True(t, hash.IsZero())

	n, err := a.Commits()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	a, err := Open(dir)
	require.NoError(t, err)
	_, err = a.Commit(models.TrackingData{"2026-02-01": {"a.com": {Visits: 1}}}, when)
	require.NoError(t, err)

	b, err := Open(dir)
	require.NoError(t, err)
	days, err := b.Days()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-01"}, days)
}

func TestRetentionRunOnce(t *testing.T) {
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "focus.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.IncrementVisits("2026-09-01", "old.com", 2))
	require.NoError(t, s.AddTimeSpent("2026-09-01", "old.com", 90))
	require.NoError(t, s.IncrementVisits("2026-10-14", "new.com", 1))

	a, err := Open(filepath.Join(dir, "archive"))
	require.NoError(t, err)

	r := NewRetention(s, a, 30, zap.NewNop())
	r.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.Local) }
	assert.Equal(t, "2026-09-15", r.Cutoff())

	n, err := r.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := s.GetTrackingData()
	require.NoError(t, err)
	assert.NotContains(t, data, "2026-09-01")
	assert.Contains(t, data, "2026-10-14")

	archived, err := a.Day("2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, models.SiteStats{Visits: 2, TimeSpent: 90}, archived["old.com"])

	// nothing left to move
	n, err = r.RunOnce()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRetentionDisabled(t *testing.T) {
	r := NewRetention(nil, nil, 0, zap.NewNop())
	n, err := r.RunOnce()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRetentionRunZeroInterval(t *testing.T) {
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "focus.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.IncrementVisits("2020-01-01", "old.com", 1))

	a, err := Open(filepath.Join(dir, "archive"))
	require.NoError(t, err)

	r := NewRetention(s, a, 7, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NotPanics(t, func() {
		assert.NoError(t, r.Run(ctx, 0))
	})

	// the first pass still ran before the context was checked
	days, err := a.Days()
	require.NoError(t, err)
	assert.Equal(t, []string{"2020-01-01"}, days)
}
