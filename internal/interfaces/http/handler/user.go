package handler

import (
	"context"

	identityapp "github.com/aquapet/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserService is the customer profile use case
type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (*identityapp.UserInfo, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input identityapp.UpdateProfileInput) (*identityapp.UserInfo, error)
	ChangePassword(ctx context.Context, input identityapp.ChangePasswordInput) error
}

// UserHandler serves the signed-in customer's own account
type UserHandler struct {
	BaseHandler
	users UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// UpdateProfileRequest carries the editable profile fields
type UpdateProfileRequest struct {
	FullName     string `json:"full_name" binding:"max=200"`
	Address      string `json:"address" binding:"max=255"`
	AddressNotes string `json:"address_notes" binding:"max=500"`
	City         string `json:"city" binding:"max=100"`
	Zip          string `json:"zip" binding:"max=20"`
	Phone        string `json:"phone" binding:"max=32"`
	ExtraInfo    string `json:"extra_info" binding:"max=1000"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// Me handles GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	info, err := h.users.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// UpdateProfile handles PUT /users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	info, err := h.users.UpdateProfile(c.Request.Context(), userID, identityapp.UpdateProfileInput{
		FullName:     req.FullName,
		Address:      req.Address,
		AddressNotes: req.AddressNotes,
		City:         req.City,
		Zip:          req.Zip,
		Phone:        req.Phone,
		ExtraInfo:    req.ExtraInfo,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// ChangePassword handles PUT /users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	err := h.users.ChangePassword(c.Request.Context(), identityapp.ChangePasswordInput{
		UserID:      userID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Password updated"})
}
