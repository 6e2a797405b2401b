package models

import "time"

// Frequency is the closed set of recurrence rules a series may use.
type Frequency string

const (
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyBiweekly Frequency = "BIWEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
)

// Weekday follows ISO-8601 numbering shifted to zero: 0=Monday .. 6=Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOrdinal selects the Nth weekday within a month for monthly series.
// OrdinalLast always resolves; First..Fourth may not exist in a given month.
type WeekdayOrdinal int

const (
	OrdinalFirst  WeekdayOrdinal = 1
	OrdinalSecond WeekdayOrdinal = 2
	OrdinalThird  WeekdayOrdinal = 3
	OrdinalFourth WeekdayOrdinal = 4
	OrdinalLast   WeekdayOrdinal = 5
)

// EventSeries is a recurring session template. Schedule fields (frequency,
// weekday, ordinal, start date) are immutable after creation; only title,
// notes, link, color, duration, end date and pause state may change.
type EventSeries struct {
	ID              string          `db:"id" json:"id"`
	Title           string          `db:"title" json:"title"`
	Notes           string          `db:"notes" json:"notes"`
	Link            *string         `db:"link" json:"link,omitempty"`
	Color           *string         `db:"color" json:"color,omitempty"`
	Frequency       Frequency       `db:"frequency" json:"frequency"`
	Weekday         Weekday         `db:"weekday" json:"weekday"`
	WeekdayOrdinal  *WeekdayOrdinal `db:"weekday_ordinal" json:"weekday_ordinal,omitempty"`
	StartDateUTC    int64           `db:"start_date_utc" json:"start_date_utc"`
	EndDateUTC      *int64          `db:"end_date_utc" json:"end_date_utc,omitempty"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	Paused          bool            `db:"paused" json:"paused"`
	CreatedBy       string          `db:"created_by" json:"created_by"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// DurationNanos returns the default occurrence duration in nanoseconds.
func (s *EventSeries) DurationNanos() int64 {
	return int64(s.DurationMinutes) * int64(time.Minute)
}
