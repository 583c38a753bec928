package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"focus-server/archive"
	"focus-server/audio"
	"focus-server/config"
	"focus-server/handlers"
	"focus-server/middleware"
	"focus-server/models"
	"focus-server/notify"
	"focus-server/nudge"
	"focus-server/scheduler"
	"focus-server/store"
	"focus-server/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (http.Handler, *middleware.Authenticator, *store.Store) {
	t.Helper()

	cfg = config.DefaultConfig()
	cfg.Server.MusicDir = t.TempDir()
	log := zap.NewNop()

	s, err := store.New(filepath.Join(t.TempDir(), "focus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, seedSettings(s))

	auth := middleware.NewAuthenticator("test-secret", time.Hour)
	hub := handlers.NewHub(auth, log)
	notifier := notify.NewLog(log)
	sched := scheduler.New(s, notifier, log)
	t.Cleanup(sched.Stop)
	nudger := nudge.New(s.LoadSettings, notifier, log)
	t.Cleanup(nudger.Stop)
	tracker := tracking.NewAggregator(s, log, time.Now)
	settings := handlers.NewSettingsService(s, nudger, hub, log)

	music, err := handlers.NewMusicHandler(s, cfg.Server.MusicDir, log)
	require.NoError(t, err)

	mux := http.NewServeMux()
	routes(mux, routeSet{
		auth:      auth,
		hub:       hub,
		login:     handlers.NewAuthHandler(s, auth, log),
		blocked:   handlers.NewBlockedHandler(),
		reminders: handlers.NewReminderHandler(s, sched, log),
		settings:  handlers.NewSettingsHandler(settings, log),
		tracking:  handlers.NewTrackingHandler(tracker, log),
		playlist:  handlers.NewPlaylistHandler(s, log),
		music:     music,
		actions: handlers.NewDispatcher(handlers.DispatcherConfig{
			Store:            s,
			Settings:         settings,
			Scheduler:        sched,
			Tracker:          tracker,
			Nudger:           nudger,
			Player:           audio.NewPlayer(audio.NewRemote(hub), log),
			RedirectTemplate: cfg.Blocking.RedirectTemplate,
			Logger:           log,
		}),
	})
	return corsMiddleware(mux), auth, s
}

func TestPublicRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, target := range []string{"/health", "/blocked?site=https://x.com"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, auth, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.GenerateToken("c1", "popup")
	require.NoError(t, err)

	for _, target := range []string{"/api/settings", "/api/reminders", "/api/tracking", "/api/analytics", "/api/playlist"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/actions", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestSeedSettingsKeepsStoredPolicy(t *testing.T) {
	_, _, s := newTestServer(t)

	var policy string
	require.NoError(t, s.GetSetting(models.SettingBlockMatchPolicy, &policy))
	assert.Equal(t, "substring", policy)

	require.NoError(t, s.SetSetting(models.SettingBlockMatchPolicy, "suffix"))
	cfg.Blocking.MatchPolicy = "exact"
	require.NoError(t, seedSettings(s))

	require.NoError(t, s.GetSetting(models.SettingBlockMatchPolicy, &policy))
	assert.Equal(t, "suffix", policy)
}

func TestArchiveTable(t *testing.T) {
	a, err := archive.Open(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)

	_, err = a.Commit(models.TrackingData{
		"2026-01-01": {
			"github.com": {Visits: 3, TimeSpent: 600},
			"x.com":      {Visits: 9, TimeSpent: 60},
		},
		"2026-01-02": {"docs.go.dev": {Visits: 1, TimeSpent: 1200}},
	}, time.Date(2026, 2, 1, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	rows, err := archiveTable(a, "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Day", "Sites", "Minutes"},
		{"2026-01-01", "2", "11"},
		{"2026-01-02", "1", "20"},
	}, [][]string(rows))

	rows, err = archiveTable(a, "2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Domain", "Visits", "Minutes"},
		{"github.com", "3", "10"},
		{"x.com", "9", "1"},
	}, [][]string(rows))

	_, err = archiveTable(a, "1999-01-01")
	assert.ErrorIs(t, err, archive.ErrDayNotArchived)
}
