package models

import "time"

// GlobalSettings is the single-row operational configuration table.
type GlobalSettings struct {
	ID                          int       `db:"id" json:"-"`
	ForwardWindowMonths         int       `db:"forward_window_months" json:"forward_window_months"`
	DefaultEventDurationMinutes int       `db:"default_event_duration_minutes" json:"default_event_duration_minutes"`
	ClaimsPaused                bool      `db:"claims_paused" json:"claims_paused"`
	BrandTitle                  string    `db:"brand_title" json:"brand_title"`
	BrandLink                   string    `db:"brand_link" json:"brand_link"`
	UpdatedAt                   time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultGlobalSettings returns the seed values used before any admin edit.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		ID:                          1,
		ForwardWindowMonths:         2,
		DefaultEventDurationMinutes: 60,
		ClaimsPaused:                false,
		BrandTitle:                  "Office Hours",
	}
}
