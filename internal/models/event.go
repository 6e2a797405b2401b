package models

import "time"

// EventStatus is the projected state of a calendar instance.
type EventStatus string

const (
	EventStatusActive    EventStatus = "ACTIVE"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// HostInfo is the embedded host summary attached to projected instances.
type HostInfo struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// EventInstance is a fully resolved calendar entry: either a materialized
// series occurrence (overrides applied) or a one-off event. SeriesID and
// OccurrenceStartUTC are nil for one-offs; OccurrenceStartUTC keeps the
// pre-override template start, which keys the instance within its series.
type EventInstance struct {
	ID                 string      `json:"id"`
	SeriesID           *string     `json:"series_id,omitempty"`
	OccurrenceStartUTC *int64      `json:"occurrence_start_utc,omitempty"`
	Title              string      `json:"title"`
	Notes              string      `json:"notes"`
	Link               *string     `json:"link,omitempty"`
	Color              *string     `json:"color,omitempty"`
	StartUTC           int64       `json:"start_utc"`
	EndUTC             int64       `json:"end_utc"`
	Host               *HostInfo   `json:"host,omitempty"`
	Status             EventStatus `json:"status"`
	SeriesPaused       bool        `json:"series_paused"`
}

// IsRecurring reports whether the instance was materialized from a series.
func (e *EventInstance) IsRecurring() bool {
	return e.SeriesID != nil
}

// PublicEventView is the redacted projection served without authentication.
// Host identity is reduced to a display name and links are withheld.
type PublicEventView struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Color    *string     `json:"color,omitempty"`
	StartUTC int64       `json:"start_utc"`
	EndUTC   int64       `json:"end_utc"`
	HostName *string     `json:"host_name,omitempty"`
	Status   EventStatus `json:"status"`
}

// OneOffEvent is a standalone non-recurring event row.
type OneOffEvent struct {
	ID        string      `db:"id" json:"id"`
	Title     string      `db:"title" json:"title"`
	Notes     string      `db:"notes" json:"notes"`
	Link      *string     `db:"link" json:"link,omitempty"`
	Color     *string     `db:"color" json:"color,omitempty"`
	StartUTC  int64       `db:"start_utc" json:"start_utc"`
	EndUTC    int64       `db:"end_utc" json:"end_utc"`
	HostID    *string     `db:"host_id" json:"host_id,omitempty"`
	Status    EventStatus `db:"status" json:"status"`
	CreatedBy string      `db:"created_by" json:"created_by"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// CoverageBucket aggregates hosted-instance counts for coverage history.
type CoverageBucket struct {
	HostID    string `json:"host_id"`
	HostName  string `json:"host_name"`
	HostEmail string `json:"host_email"`
	Hosted    int    `json:"hosted"`
}
