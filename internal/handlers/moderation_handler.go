package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/models"
	"github.com/waversurfing/waver-api/internal/services"
	"github.com/waversurfing/waver-api/internal/validation"
)

type ModerationService interface {
	CreateFlag(ctx context.Context, reporterID uuid.UUID, req *dto.CreateFlagRequest) (*models.Flag, error)
	ListFlags(ctx context.Context, status string, limit, offset int) ([]models.Flag, int64, error)
	ActionFlag(ctx context.Context, flagID uuid.UUID, req *dto.ActionFlagRequest) error
	BlockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error
	UnblockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error
}

type ModerationHandler struct {
	moderationService ModerationService
	validator         *validation.CustomValidator
}

func NewModerationHandler(moderationService ModerationService, v *validation.CustomValidator) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService, validator: v}
}

func (h *ModerationHandler) CreateFlag(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	var req dto.CreateFlagRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	flag, err := h.moderationService.CreateFlag(c.UserContext(), userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrFlagTargetAbsent) {
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("create flag failed", "error", err, "user_id", userID.String())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to submit flag")
	}
	return c.Status(fiber.StatusCreated).JSON(flag)
}

func (h *ModerationHandler) BlockUser(c *fiber.Ctx) error {
	blockerID, ok := currentUser(c)
	if !ok {
		return nil
	}

	var req dto.BlockUserRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	if err := h.moderationService.BlockUser(c.UserContext(), blockerID, req.BlockedID); err != nil {
		switch {
		case errors.Is(err, services.ErrSelfBlock), errors.Is(err, services.ErrAlreadyBlocked):
			return errorJSON(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("block user failed", "error", err, "user_id", blockerID.String())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to block user")
	}

	return c.JSON(dto.MessageResponse{Message: "User blocked successfully"})
}

func (h *ModerationHandler) UnblockUser(c *fiber.Ctx) error {
	blockerID, ok := currentUser(c)
	if !ok {
		return nil
	}
	blockedID, ok := uuidParam(c, "id", "user ID")
	if !ok {
		return nil
	}

	if err := h.moderationService.UnblockUser(c.UserContext(), blockerID, blockedID); err != nil {
		slog.Error("unblock user failed", "error", err, "user_id", blockerID.String())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to unblock user")
	}
	return c.JSON(dto.MessageResponse{Message: "User unblocked successfully"})
}

func (h *ModerationHandler) ListFlags(c *fiber.Ctx) error {
	limit, offset := pagination(c)

	flags, total, err := h.moderationService.ListFlags(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		slog.Error("list flags failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch flags")
	}

	return c.JSON(fiber.Map{
		"flags":  flags,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *ModerationHandler) ActionFlag(c *fiber.Ctx) error {
	flagID, ok := uuidParam(c, "id", "flag ID")
	if !ok {
		return nil
	}

	var req dto.ActionFlagRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	if err := h.moderationService.ActionFlag(c.UserContext(), flagID, &req); err != nil {
		if errors.Is(err, services.ErrFlagNotFound) {
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("action flag failed", "error", err, "flag_id", flagID.String())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to update flag")
	}
	return c.JSON(dto.MessageResponse{Message: "Flag updated successfully"})
}
