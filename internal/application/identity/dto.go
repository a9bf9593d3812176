package identity

import (
	"time"

	"github.com/aquapet/backend/internal/domain/identity"
	"github.com/aquapet/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
)

// RegisterInput contains the input for account registration
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput contains the input for user login. Identifier is either the
// email or the username.
type LoginInput struct {
	Identifier string
	Password   string
	IP         string
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   UserInfo        `json:"user"`
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string // optional
}

// UpdateProfileInput contains the editable customer fields
type UpdateProfileInput struct {
	FullName     string
	Address      string
	AddressNotes string
	City         string
	Zip          string
	Phone        string
	ExtraInfo    string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// UserInfo is the public view of an account
type UserInfo struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	FullName     string     `json:"full_name"`
	Address      string     `json:"address"`
	AddressNotes string     `json:"address_notes"`
	City         string     `json:"city"`
	Zip          string     `json:"zip"`
	Phone        string     `json:"phone"`
	ExtraInfo    string     `json:"extra_info"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToUserInfo converts a domain user
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         string(u.Role),
		FullName:     u.FullName,
		Address:      u.Address,
		AddressNotes: u.AddressNotes,
		City:         u.City,
		Zip:          u.Zip,
		Phone:        u.Phone,
		ExtraInfo:    u.ExtraInfo,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}
