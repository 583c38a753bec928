package store

import (
	"errors"

	"focus-server/models"
)

// DefaultBlockedSites is the list a fresh install starts with.
var DefaultBlockedSites = []string{
	"youtube.com",
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"reddit.com",
	"tiktok.com",
}

const (
	DefaultReminderInterval = 30
	DefaultMatchPolicy      = "substring"
)

func DefaultSettings() models.Settings {
	return models.Settings{
		BlockedSites:       append([]string(nil), DefaultBlockedSites...),
		IsBlocking:         false,
		AIRemindersEnabled: true,
		ReminderInterval:   DefaultReminderInterval,
		BlockMatchPolicy:   DefaultMatchPolicy,
	}
}

// EnsureDefaultSettings writes a default for every setting that has never been stored.
func (s *Store) EnsureDefaultSettings() error {
	def := DefaultSettings()
	defaults := map[string]interface{}{
		models.SettingBlockedSites:       def.BlockedSites,
		models.SettingIsBlocking:         def.IsBlocking,
		models.SettingAIRemindersEnabled: def.AIRemindersEnabled,
		models.SettingReminderInterval:   def.ReminderInterval,
		models.SettingBlockMatchPolicy:   def.BlockMatchPolicy,
	}
	for key, value := range defaults {
		var raw interface{}
		err := s.GetSetting(key, &raw)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.SetSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}

// LoadSettings reads every setting fresh from the database. Missing or
// undecodable keys fall back to their defaults.
func (s *Store) LoadSettings() (models.Settings, error) {
	settings := DefaultSettings()

	load := func(key string, dest interface{}) error {
		err := s.GetSetting(key, dest)
		if err == nil || errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	var sites []string
	if err := load(models.SettingBlockedSites, &sites); err != nil {
		return settings, err
	}
	if sites != nil {
		settings.BlockedSites = sites
	}
	if err := load(models.SettingIsBlocking, &settings.IsBlocking); err != nil {
		return settings, err
	}
	if err := load(models.SettingAIRemindersEnabled, &settings.AIRemindersEnabled); err != nil {
		return settings, err
	}
	if err := load(models.SettingReminderInterval, &settings.ReminderInterval); err != nil {
		return settings, err
	}
	if settings.ReminderInterval <= 0 {
		settings.ReminderInterval = DefaultReminderInterval
	}
	if err := load(models.SettingBlockMatchPolicy, &settings.BlockMatchPolicy); err != nil {
		return settings, err
	}
	if settings.BlockMatchPolicy == "" {
		settings.BlockMatchPolicy = DefaultMatchPolicy
	}
	return settings, nil
}

// UpdateSettings writes only the fields present in req.
func (s *Store) UpdateSettings(req models.UpdateSettingsRequest) error {
	if req.BlockedSites != nil {
		if err := s.SetSetting(models.SettingBlockedSites, *req.BlockedSites); err != nil {
			return err
		}
	}
	if req.IsBlocking != nil {
		if err := s.SetSetting(models.SettingIsBlocking, *req.IsBlocking); err != nil {
			return err
		}
	}
	if req.AIRemindersEnabled != nil {
		if err := s.SetSetting(models.SettingAIRemindersEnabled, *req.AIRemindersEnabled); err != nil {
			return err
		}
	}
	if req.ReminderInterval != nil {
		if err := s.SetSetting(models.SettingReminderInterval, *req.ReminderInterval); err != nil {
			return err
		}
	}
	if req.BlockMatchPolicy != nil {
		if err := s.SetSetting(models.SettingBlockMatchPolicy, *req.BlockMatchPolicy); err != nil {
			return err
		}
	}
	return nil
}
