package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/services"
	"github.com/waversurfing/waver-api/internal/validation"
)

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error)
	Logout(ctx context.Context, req *dto.LogoutRequest) error
	ConfirmEmail(ctx context.Context, token string) error
	ResendConfirmation(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error
}

type AuthHandler struct {
	authService AuthService
	validator   *validation.CustomValidator
}

func NewAuthHandler(authService AuthService, v *validation.CustomValidator) *AuthHandler {
	return &AuthHandler{authService: authService, validator: v}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	user, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) || errors.Is(err, services.ErrUsernameTaken) {
			return errorJSON(c, fiber.StatusConflict, err.Error())
		}
		slog.Error("register failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create account")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":    user,
		"message": "Check your email to confirm your account",
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return errorJSON(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrEmailNotConfirmed):
			return errorJSON(c, fiber.StatusForbidden, err.Error())
		}
		slog.Error("login failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	resp, err := h.authService.Refresh(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) || errors.Is(err, services.ErrUserNotFound) {
			return errorJSON(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
		}
		slog.Error("refresh failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	if err := h.authService.Logout(c.UserContext(), &req); err != nil {
		slog.Error("logout failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to logout")
	}

	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) ConfirmEmail(c *fiber.Ctx) error {
	var req dto.ConfirmEmailRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	if err := h.authService.ConfirmEmail(c.UserContext(), req.Token); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid or expired confirmation link")
		}
		slog.Error("confirm email failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to confirm email")
	}

	return c.JSON(dto.MessageResponse{Message: "Email confirmed"})
}

// ResendConfirmation answers the same way whether or not the address is registered.
func (h *AuthHandler) ResendConfirmation(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	if err := h.authService.ResendConfirmation(c.UserContext(), req.Email); err != nil {
		slog.Error("resend confirmation failed", "error", err)
	}
	return c.JSON(dto.MessageResponse{Message: "If that account needs confirming, an email is on its way"})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	if err := h.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		slog.Error("forgot password failed", "error", err)
	}
	return c.JSON(dto.MessageResponse{Message: "If that account exists, a reset link is on its way"})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	if err := h.authService.ResetPassword(c.UserContext(), &req); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return errorJSON(c, fiber.StatusBadRequest, "Invalid or expired reset link")
		}
		slog.Error("reset password failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to reset password")
	}

	return c.JSON(dto.MessageResponse{Message: "Password updated"})
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	var req dto.DeleteAccountRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	if err := h.authService.DeleteAccount(c.UserContext(), userID, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrInvalidCredentials):
			return errorJSON(c, fiber.StatusUnauthorized, "Incorrect password")
		}
		slog.Error("delete account failed", "error", err, "user_id", userID.String())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete account")
	}

	return c.JSON(dto.MessageResponse{Message: "Account deleted successfully"})
}
