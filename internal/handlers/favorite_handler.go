package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/models"
	"github.com/waversurfing/waver-api/internal/services"
)

type FavoriteService interface {
	List(ctx context.Context, userID uuid.UUID) []models.Spot
	Toggle(ctx context.Context, userID, spotID uuid.UUID) (bool, error)
	IsFavorite(ctx context.Context, userID, spotID uuid.UUID) bool
}

type DashboardService interface {
	Home(ctx context.Context, userID uuid.UUID, loc *time.Location) dto.HomeResponse
}

type FavoriteHandler struct {
	favoriteService  FavoriteService
	dashboardService DashboardService
}

func NewFavoriteHandler(favoriteService FavoriteService, dashboardService DashboardService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService, dashboardService: dashboardService}
}

func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	return c.JSON(dto.SpotListResponse{Spots: h.favoriteService.List(c.UserContext(), userID)})
}

func (h *FavoriteHandler) Toggle(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	spotID, ok := uuidParam(c, "spot_id", "spot ID")
	if !ok {
		return nil
	}

	favorited, err := h.favoriteService.Toggle(c.UserContext(), userID, spotID)
	if err != nil {
		if errors.Is(err, services.ErrSpotNotFound) {
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("toggle favorite failed", "error", err, "user_id", userID.String())
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to update favorite")
	}
	return c.JSON(dto.FavoriteStatusResponse{SpotID: spotID, Favorited: favorited})
}

func (h *FavoriteHandler) Status(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	spotID, ok := uuidParam(c, "spot_id", "spot ID")
	if !ok {
		return nil
	}

	return c.JSON(dto.FavoriteStatusResponse{
		SpotID:    spotID,
		Favorited: h.favoriteService.IsFavorite(c.UserContext(), userID, spotID),
	})
}

func (h *FavoriteHandler) Home(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	return c.JSON(h.dashboardService.Home(c.UserContext(), userID, location(c)))
}
