package models

import "time"

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	Role         string          `json:"role"`
	Permissions  []TabPermission `json:"permissions"`
	Dashboards   []string        `json:"dashboards"`
	PasswordHash string          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == AdminRole
}
