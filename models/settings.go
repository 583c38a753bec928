package models

// Persisted setting keys. The names match the keys the extension has always used.
const (
	SettingBlockedSites       = "blockedSites"
	SettingIsBlocking         = "isBlocking"
	SettingAIRemindersEnabled = "aiRemindersEnabled"
	SettingReminderInterval   = "reminderInterval"
	SettingBlockMatchPolicy   = "blockMatchPolicy"
)

type Settings struct {
	BlockedSites       []string `json:"blockedSites"`
	IsBlocking         bool     `json:"isBlocking"`
	AIRemindersEnabled bool     `json:"aiRemindersEnabled"`
	ReminderInterval   int      `json:"reminderInterval"` // minutes
	BlockMatchPolicy   string   `json:"blockMatchPolicy"`
}

// UpdateSettingsRequest uses pointers so absent fields are left untouched.
type UpdateSettingsRequest struct {
	BlockedSites       *[]string `json:"blockedSites,omitempty"`
	IsBlocking         *bool     `json:"isBlocking,omitempty"`
	AIRemindersEnabled *bool     `json:"aiRemindersEnabled,omitempty"`
	ReminderInterval   *int      `json:"reminderInterval,omitempty"`
	BlockMatchPolicy   *string   `json:"blockMatchPolicy,omitempty"`
}

type BlockedSiteRequest struct {
	Site string `json:"site"`
}

const (
	WSTypeSettingsChanged = "settings_changed"
)
