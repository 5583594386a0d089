package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/models"
	"github.com/waversurfing/waver-api/internal/services"
	"github.com/waversurfing/waver-api/internal/validation"
)

type RemoteConfigService interface {
	Public(ctx context.Context) (map[string]interface{}, error)
	Set(ctx context.Context, key, value, typ string) (*models.RemoteConfig, error)
	Delete(ctx context.Context, key string) error
}

type RemoteConfigHandler struct {
	configService RemoteConfigService
	validator     *validation.CustomValidator
}

func NewRemoteConfigHandler(configService RemoteConfigService, v *validation.CustomValidator) *RemoteConfigHandler {
	return &RemoteConfigHandler{configService: configService, validator: v}
}

// GetConfig returns every client flag with typed values (public).
func (h *RemoteConfigHandler) GetConfig(c *fiber.Ctx) error {
	configs, err := h.configService.Public(c.UserContext())
	if err != nil {
		slog.Error("load remote config failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch configuration")
	}
	return c.JSON(configs)
}

// SetConfigKey sets or updates a config key (admin only)
func (h *RemoteConfigHandler) SetConfigKey(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Key parameter is required")
	}

	var req dto.SetConfigRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	cfg, err := h.configService.Set(c.UserContext(), key, req.Value, req.Type)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Config updated successfully",
		"config": fiber.Map{
			"key":   cfg.Key,
			"value": cfg.Value,
			"type":  cfg.Type,
		},
	})
}

// DeleteConfigKey deletes a config key (admin only)
func (h *RemoteConfigHandler) DeleteConfigKey(c *fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Key parameter is required")
	}

	if err := h.configService.Delete(c.UserContext(), key); err != nil {
		if errors.Is(err, services.ErrConfigNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Config not found")
		}
		if errors.Is(err, services.ErrConfigReadOnly) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		slog.Error("delete remote config failed", "error", err, "key", key)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete config")
	}

	return c.JSON(fiber.Map{
		"error":   false,
		"message": "Config deleted successfully",
	})
}
