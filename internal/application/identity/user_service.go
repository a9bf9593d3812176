package identity

import (
	"context"

	"github.com/aquapet/backend/internal/domain/identity"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrWrongPassword is returned when the current password does not match
var ErrWrongPassword = shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")

// UserService manages the signed-in customer's own account
type UserService struct {
	users       identity.UserRepository
	phoneRegion string
	logger      *zap.Logger
}

// NewUserService creates a new UserService. An empty phoneRegion means IT.
func NewUserService(users identity.UserRepository, phoneRegion string, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if phoneRegion == "" {
		phoneRegion = identity.DefaultPhoneRegion
	}
	return &UserService{users: users, phoneRegion: phoneRegion, logger: logger}
}

// Me returns the account of the given user
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// UpdateProfile replaces the profile fields. The phone is stored in E.164.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	phone, err := identity.NormalizePhone(input.Phone, s.phoneRegion)
	if err != nil {
		return nil, err
	}

	if err := user.UpdateProfile(identity.Profile{
		FullName:     input.FullName,
		Address:      input.Address,
		AddressNotes: input.AddressNotes,
		City:         input.City,
		Zip:          input.Zip,
		Phone:        phone,
		ExtraInfo:    input.ExtraInfo,
	}); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Profile updated", zap.String("user_id", userID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

// ChangePassword verifies the current password and sets a new one
func (s *UserService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if !user.VerifyPassword(input.OldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	return s.users.Update(ctx, user)
}
