package model

import "time"

// Settings keeps per-user planner preferences, one row per user. Reminder
// times are local HH:MM wall-clock strings in the user's timezone.
type Settings struct {
	ID                 uint `gorm:"primaryKey"`
	UserID             uint `gorm:"uniqueIndex"`
	FocusDoneEnabled   bool
	FocusTargetMinutes int
	CelebrateEnabled   bool
	AutoHideCarryOver  bool
	Timezone           string
	MorningReminder    string
	MiddayReminder     string
	EveningReminder    string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DefaultTimezone is used whenever a profile carries no or an unknown zone.
const DefaultTimezone = "America/New_York"

// DefaultSettings returns the preferences a user starts with. Defaults are
// applied here once, never as scattered fallbacks at use sites.
func DefaultSettings(userID uint) Settings {
	return Settings{
		UserID:             userID,
		FocusDoneEnabled:   true,
		FocusTargetMinutes: 90,
		CelebrateEnabled:   true,
		AutoHideCarryOver:  false,
		Timezone:           DefaultTimezone,
		MorningReminder:    "08:30",
		MiddayReminder:     "13:00",
		EveningReminder:    "20:30",
	}
}
