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
	"github.com/waversurfing/waver-api/internal/regions"
	"github.com/waversurfing/waver-api/internal/services"
	"github.com/waversurfing/waver-api/internal/validation"
)

type SpotService interface {
	Regions() []*regions.Node
	List(ctx context.Context, region, subRegion, subSubRegion string) ([]models.Spot, error)
	Search(ctx context.Context, q string) ([]models.Spot, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Spot, error)
	Create(ctx context.Context, req *dto.CreateSpotRequest) (*models.Spot, error)
}

// SpotReports is the part of the report service the spot pages need.
type SpotReports interface {
	TodayForSpot(ctx context.Context, viewerID, spotID uuid.UUID, loc *time.Location) []dto.ReportResponse
	SpotSummary(ctx context.Context, viewerID, spotID uuid.UUID, loc *time.Location) (*dto.SpotSummaryResponse, error)
}

type SpotHandler struct {
	spotService SpotService
	reports     SpotReports
	validator   *validation.CustomValidator
}

func NewSpotHandler(spotService SpotService, reports SpotReports, v *validation.CustomValidator) *SpotHandler {
	return &SpotHandler{spotService: spotService, reports: reports, validator: v}
}

func (h *SpotHandler) Regions(c *fiber.Ctx) error {
	return c.JSON(dto.RegionsResponse{Regions: h.spotService.Regions()})
}

func (h *SpotHandler) List(c *fiber.Ctx) error {
	region, sub, subSub := c.Query("region"), c.Query("sub_region"), c.Query("sub_sub_region")
	if (sub != "" && region == "") || (subSub != "" && sub == "") {
		return errorJSON(c, fiber.StatusBadRequest, "Sub-regions need their parent region")
	}

	spots, err := h.spotService.List(c.UserContext(), region, sub, subSub)
	if err != nil {
		slog.Error("list spots failed", "error", err, "region", region)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch spots")
	}
	return c.JSON(dto.SpotListResponse{Spots: spots})
}

func (h *SpotHandler) Search(c *fiber.Ctx) error {
	spots, err := h.spotService.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		slog.Error("search spots failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to search spots")
	}
	return c.JSON(dto.SpotListResponse{Spots: spots})
}

func (h *SpotHandler) Get(c *fiber.Ctx) error {
	spotID, ok := uuidParam(c, "id", "spot ID")
	if !ok {
		return nil
	}

	spot, err := h.spotService.Get(c.UserContext(), spotID)
	if err != nil {
		if errors.Is(err, services.ErrSpotNotFound) {
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("get spot failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch spot")
	}
	return c.JSON(spot)
}

func (h *SpotHandler) Summary(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	spotID, ok := uuidParam(c, "id", "spot ID")
	if !ok {
		return nil
	}

	resp, err := h.reports.SpotSummary(c.UserContext(), userID, spotID, location(c))
	if err != nil {
		if errors.Is(err, services.ErrSpotNotFound) {
			return errorJSON(c, fiber.StatusNotFound, err.Error())
		}
		slog.Error("spot summary failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load spot summary")
	}
	return c.JSON(resp)
}

func (h *SpotHandler) TodayReports(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	spotID, ok := uuidParam(c, "id", "spot ID")
	if !ok {
		return nil
	}

	reports := h.reports.TodayForSpot(c.UserContext(), userID, spotID, location(c))
	return c.JSON(dto.ReportListResponse{Reports: reports, Limit: len(reports)})
}

func (h *SpotHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSpotRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	spot, err := h.spotService.Create(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, regions.ErrUnknownRegion) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		slog.Error("create spot failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to create spot")
	}
	return c.Status(fiber.StatusCreated).JSON(spot)
}
