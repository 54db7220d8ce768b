package domain

import (
	"time"
)

// User statuses. Only active users may authenticate or hold live sessions.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

// User represents a registered user in the system.
type User struct {
	ID           int64     `json:"-"`
	UUID         string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
