package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

// UserStatus captures whether a principal may act in the system.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusDisabled UserStatus = "DISABLED"
)

// User represents an authorized principal stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	HostedCount  int        `db:"hosted_count" json:"hosted_count"`

	EmailOnAssigned    bool `db:"email_on_assigned" json:"email_on_assigned"`
	EmailOnRemoved     bool `db:"email_on_removed" json:"email_on_removed"`
	EmailOnCancelled   bool `db:"email_on_cancelled" json:"email_on_cancelled"`
	EmailOnTimeChanged bool `db:"email_on_time_changed" json:"email_on_time_changed"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// OOOBlock is a user-declared unavailability interval in UTC nanoseconds.
type OOOBlock struct {
	ID       string `db:"id" json:"id"`
	UserID   string `db:"user_id" json:"-"`
	StartUTC int64  `db:"start_utc" json:"start_utc"`
	EndUTC   int64  `db:"end_utc" json:"end_utc"`
}

// Overlaps reports whether the block intersects [start, end).
func (b OOOBlock) Overlaps(start, end int64) bool {
	return start < b.EndUTC && end > b.StartUTC
}

// NotificationSettings mirrors the per-user email preference flags.
type NotificationSettings struct {
	EmailOnAssigned    bool `json:"email_on_assigned"`
	EmailOnRemoved     bool `json:"email_on_removed"`
	EmailOnCancelled   bool `json:"email_on_cancelled"`
	EmailOnTimeChanged bool `json:"email_on_time_changed"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Status   *UserStatus
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
