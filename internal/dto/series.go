package dto

import "github.com/ohsched/office-hours-api/internal/models"

// CreateSeriesRequest describes the payload for creating a recurring series.
// Schedule fields are fixed for the lifetime of the series.
type CreateSeriesRequest struct {
	Title           string                 `json:"title" validate:"required,min=1,max=200"`
	Notes           string                 `json:"notes" validate:"max=2000"`
	Link            *string                `json:"link,omitempty" validate:"omitempty,url"`
	Color           *string                `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Frequency       models.Frequency       `json:"frequency" validate:"required,oneof=WEEKLY BIWEEKLY MONTHLY"`
	Weekday         models.Weekday         `json:"weekday" validate:"min=0,max=6"`
	WeekdayOrdinal  *models.WeekdayOrdinal `json:"weekday_ordinal,omitempty" validate:"omitempty,min=1,max=5"`
	StartDateUTC    int64                  `json:"start_date_utc" validate:"required,gt=0"`
	EndDateUTC      *int64                 `json:"end_date_utc,omitempty" validate:"omitempty,gt=0"`
	DurationMinutes int                    `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
}

// UpdateSeriesRequest carries the mutable series fields. Nil fields are
// left unchanged.
type UpdateSeriesRequest struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Link            *string `json:"link,omitempty" validate:"omitempty,url"`
	Color           *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	EndDateUTC      *int64  `json:"end_date_utc,omitempty" validate:"omitempty,gt=0"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,min=5,max=480"`
}
