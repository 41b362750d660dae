package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDriver  Role = "DRIVER"
	RoleFaculty Role = "FACULTY"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDriver, RoleFaculty:
		return true
	}
	return false
}

// User is an account holder of any role.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
