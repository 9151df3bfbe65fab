package dto

import "time"

// RegisterRequest creates a student or teacher account.
type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,min=2,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 string `json:"role" validate:"omitempty,oneof=student teacher"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse returns the account and, when it is active, a bearer token.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token,omitempty"`
	TokenType string       `json:"token_type,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

// ProfileUpdateRequest lets a user rename themselves.
type ProfileUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=255"`
}
