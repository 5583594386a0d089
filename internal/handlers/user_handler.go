package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/services"
)

type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	UsernameAvailable(ctx context.Context, username string) (dto.UsernameAvailabilityResponse, error)
	Search(ctx context.Context, callerID uuid.UUID, q string) ([]dto.PublicUserResponse, error)
	RequestDeletion(ctx context.Context, userID uuid.UUID) error
}

type UserHandler struct {
	userService UserService
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	user, err := h.userService.Me(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("load profile failed", "error", err, "user_id", userID.String())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load profile")
	}
	return c.JSON(user)
}

func (h *UserHandler) UsernameAvailable(c *fiber.Ctx) error {
	username := c.Query("username")
	if username == "" {
		return errorJSON(c, fiber.StatusBadRequest, "username is required")
	}

	resp, err := h.userService.UsernameAvailable(c.UserContext(), username)
	if err != nil {
		slog.Error("username check failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to check username")
	}
	return c.JSON(resp)
}

func (h *UserHandler) Search(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	users, err := h.userService.Search(c.UserContext(), userID, c.Query("q"))
	if err != nil {
		slog.Error("user search failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to search users")
	}
	return c.JSON(dto.UserSearchResponse{Users: users})
}

func (h *UserHandler) RequestDeletion(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	if err := h.userService.RequestDeletion(c.UserContext(), userID); err != nil {
		slog.Error("deletion request failed", "error", err, "user_id", userID.String())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to record deletion request")
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{Message: "Deletion request received"})
}
