package dto

// CreateOneOffEventRequest describes the payload for a standalone event.
type CreateOneOffEventRequest struct {
	Title    string  `json:"title" validate:"required,min=1,max=200"`
	Notes    string  `json:"notes" validate:"max=2000"`
	Link     *string `json:"link,omitempty" validate:"omitempty,url"`
	Color    *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	StartUTC int64   `json:"start_utc" validate:"required,gt=0"`
	EndUTC   int64   `json:"end_utc" validate:"required,gt=0"`
}

// WindowQuery bounds a projection request in UTC nanoseconds.
type WindowQuery struct {
	StartUTC int64 `form:"start_utc" validate:"required,gt=0"`
	EndUTC   int64 `form:"end_utc" validate:"required,gtfield=StartUTC"`
}

// CoveragePeriod is one month of coverage history.
type CoveragePeriod struct {
	Month    string `json:"month"`
	Total    int    `json:"total"`
	Assigned int    `json:"assigned"`
}
