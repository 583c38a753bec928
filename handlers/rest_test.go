package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"focus-server/audio"
	"focus-server/middleware"
	"focus-server/models"
	"focus-server/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestParseRemindTime(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-10-15T18:30:00Z", time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)},
		{"2026-10-15 18:30", time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)},
		{"2026-10-16", time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)},
		{"in 5 minutes", now.Add(5 * time.Minute)},
		{"In 2 Hours", now.Add(2 * time.Hour)},
		{"10min", now.Add(10 * time.Minute)},
		{"30s", now.Add(30 * time.Second)},
		{"3 days", now.Add(72 * time.Hour)},
		{"tomorrow", now.Add(24 * time.Hour)},
		{"next week", now.Add(7 * 24 * time.Hour)},
		{"1792051200000", time.UnixMilli(1792051200000)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseRemindTime(tt.input, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseRemindTimeInvalid(t *testing.T) {
	now := time.Now()
	for _, input := range []string{"", "soon", "in five minutes", "5 fortnights", "in -2 hours", "min", "in 9999999999 weeks", "9223372036854775807s"} {
		t.Run(input, func(t *testing.T) {
			_, err := parseRemindTime(input, now)
			assert.Error(t, err)
		})
	}
}

func TestReminderHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewReminderHandler(env.store, env.scheduler, zap.NewNop())
	h.now = env.clock.Now

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/reminders", h.List)
	mux.HandleFunc("POST /api/reminders", h.Create)
	mux.HandleFunc("DELETE /api/reminders/{id}", h.Delete)

	rec := serve(mux, http.MethodGet, "/api/reminders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(mux, http.MethodPost, "/api/reminders", `{"title":"","remind_at":"in 5 minutes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodPost, "/api/reminders", `{"title":"tea","remind_at":"whenever"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodPost, "/api/reminders", `{"title":"tea","body":"green","remind_at":"in 10 minutes"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Reminder
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "tea", created.Title)
	assert.True(t, env.scheduler.Pending(created.ID))

	rec = serve(mux, http.MethodDelete, "/api/reminders/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.scheduler.Pending(created.ID))

	rec = serve(mux, http.MethodGet, "/api/reminders", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSettingsHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewSettingsHandler(env.settings, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/settings", h.Get)
	mux.HandleFunc("PUT /api/settings", h.Update)
	mux.HandleFunc("POST /api/settings/blocked-sites", h.AddBlockedSite)
	mux.HandleFunc("DELETE /api/settings/blocked-sites/{site}", h.RemoveBlockedSite)

	rec := serve(mux, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var settings models.Settings
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&settings))
	assert.Contains(t, settings.BlockedSites, "youtube.com")
	assert.Equal(t, 30, settings.ReminderInterval)

	rec = serve(mux, http.MethodPut, "/api/settings", `{"reminderInterval":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodPut, "/api/settings", `{"blockMatchPolicy":"regex"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodPut, "/api/settings", `{"reminderInterval":45}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.nudger.reconfigured)

	rec = serve(mux, http.MethodPost, "/api/settings/blocked-sites", `{"site":" https://News.YCombinator.com/ "}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&settings))
	assert.Contains(t, settings.BlockedSites, "news.ycombinator.com")

	rec = serve(mux, http.MethodPost, "/api/settings/blocked-sites", `{"site":"news.ycombinator.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "duplicates are ignored")

	rec = serve(mux, http.MethodPost, "/api/settings/blocked-sites", `{"site":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodDelete, "/api/settings/blocked-sites/news.ycombinator.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&settings))
	assert.NotContains(t, settings.BlockedSites, "news.ycombinator.com")

	rec = serve(mux, http.MethodDelete, "/api/settings/blocked-sites/news.ycombinator.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackingHandler(t *testing.T) {
	env := newTestEnv(t)
	tracker := tracking.NewAggregator(env.store, zap.NewNop(), func() time.Time { return testNow })
	h := NewTrackingHandler(tracker, zap.NewNop())

	rec := serve(http.HandlerFunc(h.ActiveTime), http.MethodPost, "/api/tracking/active-time", `{"domain":"docs.python.org","seconds":90}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(http.HandlerFunc(h.ActiveTime), http.MethodPost, "/api/tracking/active-time", `{"domain":"docs.python.org","seconds":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.HandlerFunc(h.Data), http.MethodGet, "/api/tracking", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var data models.TrackingData
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&data))
	assert.Equal(t, int64(90), data[tracking.DayKey(testNow)]["docs.python.org"].TimeSpent)

	rec = serve(http.HandlerFunc(h.Analytics), http.MethodGet, "/api/analytics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var analytics models.Analytics
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&analytics))
	assert.Equal(t, tracking.DayKey(testNow), analytics.Day)
	require.Len(t, analytics.TopSites, 1)
	assert.Equal(t, "docs.python.org", analytics.TopSites[0].Domain)
}

func TestBlockedHandlerRotatesQuotes(t *testing.T) {
	h := NewBlockedHandler()

	var first, second models.BlockedPageInfo
	rec := serve(http.HandlerFunc(h.Info), http.MethodGet, "/blocked?site=https%3A%2F%2Fwww.reddit.com%2Fr%2Fgolang", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))
	assert.Equal(t, "www.reddit.com", first.Host)
	assert.Equal(t, focusQuotes[0], first.Quote)

	rec = serve(http.HandlerFunc(h.Info), http.MethodGet, "/blocked", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&second))
	assert.Equal(t, blockedFallbackHost, second.Host)
	assert.Equal(t, focusQuotes[1], second.Quote)

	for i := 2; i < len(focusQuotes); i++ {
		h.nextQuote()
	}
	assert.Equal(t, focusQuotes[0], h.nextQuote(), "rotation wraps")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := middleware.NewAuthenticator("test-secret", time.Hour)
	h := NewAuthHandler(env.store, auth, zap.NewNop())

	rec := serve(http.HandlerFunc(h.Login), http.MethodPost, "/api/auth/login", `{"client_name":"popup"}`)
	require.Equal(t, http.StatusOK, rec.Code, "no passphrase configured")
	var resp models.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	claims, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Client.ID, claims.ClientID)
	assert.Equal(t, "popup", claims.ClientName)

	require.NoError(t, env.store.SetPassphrase("deep work"))

	rec = serve(http.HandlerFunc(h.Login), http.MethodPost, "/api/auth/login", `{"client_name":"popup","passphrase":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(http.HandlerFunc(h.Login), http.MethodPost, "/api/auth/login", `{"passphrase":"deep work"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "extension", resp.Client.Name)
}

func TestPlaylistHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewPlaylistHandler(env.store, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/playlist", h.List)
	mux.HandleFunc("POST /api/playlist", h.Add)
	mux.HandleFunc("DELETE /api/playlist/{id}", h.Delete)

	rec := serve(mux, http.MethodPost, "/api/playlist", `{"title":"Brown Noise"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodPost, "/api/playlist", `{"title":"Brown Noise","src":"https://example.com/brown.mp3"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var track models.Track
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&track))
	assert.Equal(t, "🎵", track.Icon)

	rec = serve(mux, http.MethodGet, "/api/playlist", "")
	var tracks []models.Track
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tracks))
	require.Len(t, tracks, len(audio.DefaultPlaylist)+1)
	assert.Equal(t, "Brown Noise", tracks[len(tracks)-1].Title)

	rec = serve(mux, http.MethodDelete, "/api/playlist/"+track.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(mux, http.MethodGet, "/api/playlist", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tracks))
	assert.Len(t, tracks, len(audio.DefaultPlaylist))
}
