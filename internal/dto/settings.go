package dto

// UpdateSettingsRequest carries the editable global settings. Nil fields are
// left unchanged.
type UpdateSettingsRequest struct {
	ForwardWindowMonths         *int    `json:"forward_window_months,omitempty" validate:"omitempty,min=1,max=12"`
	DefaultEventDurationMinutes *int    `json:"default_event_duration_minutes,omitempty" validate:"omitempty,min=5,max=480"`
	ClaimsPaused                *bool   `json:"claims_paused,omitempty"`
	BrandTitle                  *string `json:"brand_title,omitempty" validate:"omitempty,max=200"`
	BrandLink                   *string `json:"brand_link,omitempty" validate:"omitempty,url"`
}
