package dto

import "github.com/ohsched/office-hours-api/internal/models"

// CreateUserRequest describes the payload for provisioning a user.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8"`
	FullName string          `json:"full_name" validate:"required,min=1,max=200"`
	Role     models.UserRole `json:"role" validate:"required,oneof=ADMIN USER"`
}

// UpdateUserRequest carries mutable user profile fields.
type UpdateUserRequest struct {
	Email    *string          `json:"email,omitempty" validate:"omitempty,email"`
	FullName *string          `json:"full_name,omitempty" validate:"omitempty,min=1,max=200"`
	Role     *models.UserRole `json:"role,omitempty" validate:"omitempty,oneof=ADMIN USER"`
}

// OOOBlockInput is one unavailability interval in a set request.
type OOOBlockInput struct {
	StartUTC int64 `json:"start_utc" validate:"required,gt=0"`
	EndUTC   int64 `json:"end_utc" validate:"required,gtfield=StartUTC"`
}

// SetOutOfOfficeRequest replaces a user's unavailability intervals wholesale.
type SetOutOfOfficeRequest struct {
	Blocks []OOOBlockInput `json:"blocks" validate:"dive"`
}

// UpdateNotificationSettingsRequest toggles per-user email preferences.
type UpdateNotificationSettingsRequest struct {
	EmailOnAssigned    *bool `json:"email_on_assigned,omitempty"`
	EmailOnRemoved     *bool `json:"email_on_removed,omitempty"`
	EmailOnCancelled   *bool `json:"email_on_cancelled,omitempty"`
	EmailOnTimeChanged *bool `json:"email_on_time_changed,omitempty"`
}

// UserProfileResponse is a user plus their unavailability intervals.
type UserProfileResponse struct {
	User      models.User       `json:"user"`
	OOOBlocks []models.OOOBlock `json:"ooo_blocks"`
}
