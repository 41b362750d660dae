package dto

import (
	"time"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// UserRegisterRequest payload for new faculty accounts.
type UserRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest starts a password reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest redeems a reset token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest payload for authenticated password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateUserRequest payload for admin account creation.
type CreateUserRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// UpdateUserRequest payload for admin account changes.
type UpdateUserRequest struct {
	Name   *string      `json:"name"`
	Email  *string      `json:"email"`
	Role   *domain.Role `json:"role"`
	Active *bool        `json:"active"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// AuditEntryResponse renders one history entry.
type AuditEntryResponse struct {
	ID         string             `json:"id"`
	EntityType domain.EntityType  `json:"entity_type"`
	EntityID   string             `json:"entity_id"`
	ActorID    *string            `json:"actor_id"`
	ActorRole  domain.Role        `json:"actor_role,omitempty"`
	Action     domain.AuditAction `json:"action"`
	OldValue   map[string]any     `json:"old_value"`
	NewValue   map[string]any     `json:"new_value"`
	CreatedAt  time.Time          `json:"created_at"`
}
