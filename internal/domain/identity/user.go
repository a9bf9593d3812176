package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/aquapet/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role represents what a user may do in the shop
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Password cost for bcrypt
var bcryptCost = 12

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetter     = regexp.MustCompile(`[a-zA-Z]`)
	hasNumber     = regexp.MustCompile(`[0-9]`)
)

// User is a shop customer or administrator.
// It is the aggregate root for the customer profile and delivery address.
type User struct {
	shared.BaseAggregateRoot
	Username     string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"username"`
	Email        string     `gorm:"type:varchar(200);not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	Blocked      bool       `gorm:"not null;default:false" json:"blocked"`
	FullName     string     `gorm:"type:varchar(200)" json:"full_name,omitempty"`
	Address      string     `gorm:"type:varchar(255)" json:"address,omitempty"`
	AddressNotes string     `gorm:"type:varchar(500)" json:"address_notes,omitempty"`
	City         string     `gorm:"type:varchar(100)" json:"city,omitempty"`
	Zip          string     `gorm:"type:varchar(20)" json:"zip,omitempty"`
	Phone        string     `gorm:"type:varchar(32)" json:"phone,omitempty"`
	ExtraInfo    string     `gorm:"type:text" json:"extra_info,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// Profile carries the editable customer fields
type Profile struct {
	FullName     string
	Address      string
	AddressNotes string
	City         string
	Zip          string
	Phone        string
	ExtraInfo    string
}

// NewUser creates a customer account with a hashed password
func NewUser(username, email, password string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		Email:             email,
		PasswordHash:      passwordHash,
		Role:              RoleCustomer,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// SetPassword replaces the password
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// UpdateProfile replaces the profile fields. The phone must already be
// normalised by the caller (see NormalizePhone).
func (u *User) UpdateProfile(p Profile) error {
	if len(p.FullName) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Full name cannot exceed 200 characters")
	}
	if len(p.Address) > 255 || len(p.City) > 100 || len(p.Zip) > 20 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address fields are too long")
	}
	if len(p.AddressNotes) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address notes cannot exceed 500 characters")
	}

	u.FullName = strings.TrimSpace(p.FullName)
	u.Address = strings.TrimSpace(p.Address)
	u.AddressNotes = strings.TrimSpace(p.AddressNotes)
	u.City = strings.TrimSpace(p.City)
	u.Zip = strings.TrimSpace(p.Zip)
	u.Phone = strings.TrimSpace(p.Phone)
	u.ExtraInfo = strings.TrimSpace(p.ExtraInfo)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// PromoteToAdmin grants the administrator role
func (u *User) PromoteToAdmin() {
	u.Role = RoleAdmin
	u.UpdatedAt = time.Now()
}

// RecordLogin records a successful login
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// IsAdmin returns true for administrators
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanLogin returns false for blocked accounts
func (u *User) CanLogin() bool {
	return !u.Blocked
}

// HasShippingAddress reports whether address, city and zip are filled in
func (u *User) HasShippingAddress() bool {
	return u.Address != "" && u.City != "" && u.Zip != ""
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	if !hasLetter.MatchString(password) || !hasNumber.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email is required")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
