// Package config loads server configuration from defaults, an optional YAML
// file, a .env file and FOCUS_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "FOCUS"

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Blocking  BlockingConfig  `mapstructure:"blocking" yaml:"blocking"`
	Archive   ArchiveConfig   `mapstructure:"archive" yaml:"archive"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	MusicDir string `mapstructure:"music_dir" yaml:"music_dir"` // uploaded custom tracks
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Passphrase string        `mapstructure:"passphrase" yaml:"passphrase"` // empty = open server
	TokenTTL   time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

type SchedulerConfig struct {
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
}

type BlockingConfig struct {
	MatchPolicy      string `mapstructure:"match_policy" yaml:"match_policy"` // substring, exact, suffix
	RedirectTemplate string `mapstructure:"redirect_template" yaml:"redirect_template"`
}

type ArchiveConfig struct {
	Dir        string        `mapstructure:"dir" yaml:"dir"`
	RetainDays int           `mapstructure:"retain_days" yaml:"retain_days"` // 0 keeps tracking forever
	Interval   time.Duration `mapstructure:"interval" yaml:"interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // json, console
}

func DefaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080", MusicDir: "./data/music"},
		Database: DatabaseConfig{Path: "./data/focus.db"},
		Auth: AuthConfig{
			JWTSecret: "focus-server-secret-key-change-in-production",
			TokenTTL:  30 * 24 * time.Hour,
		},
		Scheduler: SchedulerConfig{MaxDelay: 2147483647 * time.Millisecond},
		Blocking: BlockingConfig{
			MatchPolicy:      "substring",
			RedirectTemplate: "/blocked?site={{url}}",
		},
		Archive: ArchiveConfig{
			Dir:      "./data/archive",
			Interval: 24 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Loader owns the viper instance so the config file can be watched after Load.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load merges defaults, configFile (optional), .env and the environment.
func (l *Loader) Load(configFile string) (*Config, error) {
	// a missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := l.v
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Watch calls onChange with the reloaded config whenever the config file changes.
// It is a no-op when no file was loaded.
func (l *Loader) Watch(onChange func(*Config, error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg := &Config{}
		if err := l.v.Unmarshal(cfg); err != nil {
			onChange(nil, fmt.Errorf("parse config: %w", err))
			return
		}
		onChange(cfg, nil)
	})
	l.v.WatchConfig()
}

// Load is a shortcut for NewLoader().Load.
func Load(configFile string) (*Config, error) {
	return NewLoader().Load(configFile)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.music_dir", d.Server.MusicDir)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.passphrase", d.Auth.Passphrase)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("scheduler.max_delay", d.Scheduler.MaxDelay)
	v.SetDefault("blocking.match_policy", d.Blocking.MatchPolicy)
	v.SetDefault("blocking.redirect_template", d.Blocking.RedirectTemplate)
	v.SetDefault("archive.dir", d.Archive.Dir)
	v.SetDefault("archive.retain_days", d.Archive.RetainDays)
	v.SetDefault("archive.interval", d.Archive.Interval)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate reports every problem at once.
func (c *Config) Validate() []error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL))
	}
	if c.Scheduler.MaxDelay <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.max_delay must be positive, got %s", c.Scheduler.MaxDelay))
	}
	switch c.Blocking.MatchPolicy {
	case "substring", "exact", "suffix":
	default:
		errs = append(errs, fmt.Errorf("blocking.match_policy %q is not one of substring, exact, suffix", c.Blocking.MatchPolicy))
	}
	if c.Blocking.RedirectTemplate == "" {
		errs = append(errs, errors.New("blocking.redirect_template is required"))
	}
	if c.Archive.RetainDays < 0 {
		errs = append(errs, fmt.Errorf("archive.retain_days must be >= 0, got %d", c.Archive.RetainDays))
	}
	if c.Archive.RetainDays > 0 && c.Archive.Dir == "" {
		errs = append(errs, errors.New("archive.dir is required when archive.retain_days is set"))
	}
	if c.Archive.RetainDays > 0 && c.Archive.Interval <= 0 {
		errs = append(errs, fmt.Errorf("archive.interval must be positive when archive.retain_days is set, got %s", c.Archive.Interval))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of json, console", c.Logging.Format))
	}

	return errs
}
