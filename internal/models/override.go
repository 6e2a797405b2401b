package models

import "time"

// InstanceOverride stores per-occurrence deviations from a series template,
// keyed by (series_id, occurrence_start_utc). Nil fields inherit from the
// series; HostCleared distinguishes "explicitly unassigned" from "inherit".
type InstanceOverride struct {
	SeriesID           string    `db:"series_id" json:"series_id"`
	OccurrenceStartUTC int64     `db:"occurrence_start_utc" json:"occurrence_start_utc"`
	StartUTC           *int64    `db:"start_utc" json:"start_utc,omitempty"`
	EndUTC             *int64    `db:"end_utc" json:"end_utc,omitempty"`
	Notes              *string   `db:"notes" json:"notes,omitempty"`
	HostID             *string   `db:"host_id" json:"host_id,omitempty"`
	HostCleared        bool      `db:"host_cleared" json:"host_cleared"`
	Cancelled          bool      `db:"cancelled" json:"cancelled"`
	UpdatedBy          string    `db:"updated_by" json:"updated_by"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
