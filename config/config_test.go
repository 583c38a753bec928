package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.Empty(t, DefaultConfig().Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "substring", cfg.Blocking.MatchPolicy)
	assert.Equal(t, 2147483647*time.Millisecond, cfg.Scheduler.MaxDelay)
	assert.Zero(t, cfg.Archive.RetainDays)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
blocking:
  match_policy: suffix
archive:
  retain_days: 90
logging:
  level: debug
`), 0o644))

	t.Setenv("FOCUS_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("FOCUS_SCHEDULER_MAX_DELAY", "1h")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "suffix", cfg.Blocking.MatchPolicy)
	assert.Equal(t, 90, cfg.Archive.RetainDays)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Scheduler.MaxDelay)
	assert.Empty(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   int
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, 1},
		{"bad policy", func(c *Config) { c.Blocking.MatchPolicy = "regex" }, 1},
		{"negative retention", func(c *Config) { c.Archive.RetainDays = -1 }, 1},
		{"retention without dir", func(c *Config) { c.Archive.RetainDays = 7; c.Archive.Dir = "" }, 1},
		{"retention without interval", func(c *Config) { c.Archive.RetainDays = 7; c.Archive.Interval = 0 }, 1},
		{"zero interval, retention off", func(c *Config) { c.Archive.Interval = 0 }, 0},
		{"zero max delay", func(c *Config) { c.Scheduler.MaxDelay = 0 }, 1},
		{"several", func(c *Config) {
			c.Logging.Level = "loud"
			c.Logging.Format = "xml"
			c.Database.Path = ""
		}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Len(t, cfg.Validate(), tt.want)
		})
	}
}
