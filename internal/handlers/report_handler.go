package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/services"
	"github.com/waversurfing/waver-api/internal/submission"
	"github.com/waversurfing/waver-api/internal/validation"
)

type ReportService interface {
	Create(ctx context.Context, userID uuid.UUID, req *dto.CreateReportRequest) (*dto.ReportResponse, error)
	CanSubmit(ctx context.Context, userID uuid.UUID) submission.Decision
	Update(ctx context.Context, userID, reportID uuid.UUID, req *dto.UpdateReportRequest) (*dto.ReportResponse, error)
	Delete(ctx context.Context, userID, reportID uuid.UUID) error
	Get(ctx context.Context, viewerID, reportID uuid.UUID) (*dto.ReportResponse, error)
	UserHistory(ctx context.Context, viewerID, ownerID uuid.UUID, limit, offset int) (*dto.ReportHistoryResponse, error)
	FriendFeed(ctx context.Context, viewerID uuid.UUID, limit, offset int) []dto.ReportResponse
}

type ReportHandler struct {
	reportService ReportService
	validator     *validation.CustomValidator
}

func NewReportHandler(reportService ReportService, v *validation.CustomValidator) *ReportHandler {
	return &ReportHandler{reportService: reportService, validator: v}
}

// reportError maps report service errors onto responses.
func reportError(c *fiber.Ctx, err error, fallback string) error {
	var cooldown *services.CooldownError
	var rejected *services.ContentRejectedError
	switch {
	case errors.As(err, &cooldown):
		retry := cooldown.Decision.RetryAfterSeconds()
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.CooldownErrorResponse{
			Error: true, Message: cooldown.Error(), RetryAfter: retry,
		})
	case errors.As(err, &rejected):
		return errorJSON(c, fiber.StatusUnprocessableEntity, rejected.Message)
	case errors.Is(err, services.ErrReportNotFound),
		errors.Is(err, services.ErrSpotNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotReportOwner):
		return errorJSON(c, fiber.StatusForbidden, err.Error())
	}
	slog.Error(fallback, "error", err)
	return errorJSON(c, fiber.StatusInternalServerError, fallback)
}

func (h *ReportHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	var req dto.CreateReportRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	report, err := h.reportService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return reportError(c, err, "Failed to create report")
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) CanSubmit(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	d := h.reportService.CanSubmit(c.UserContext(), userID)
	return c.JSON(dto.CanSubmitResponse{
		Allowed:    d.Allowed,
		RetryAfter: d.RetryAfterSeconds(),
		NextAt:     d.NextAt,
	})
}

func (h *ReportHandler) Update(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	reportID, ok := uuidParam(c, "id", "report ID")
	if !ok {
		return nil
	}

	var req dto.UpdateReportRequest
	if !bind(c, h.validator, &req) {
		return nil
	}

	report, err := h.reportService.Update(c.UserContext(), userID, reportID, &req)
	if err != nil {
		return reportError(c, err, "Failed to update report")
	}
	return c.JSON(report)
}

func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	reportID, ok := uuidParam(c, "id", "report ID")
	if !ok {
		return nil
	}

	if err := h.reportService.Delete(c.UserContext(), userID, reportID); err != nil {
		return reportError(c, err, "Failed to delete report")
	}
	return c.JSON(dto.MessageResponse{Message: "Report deleted"})
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	reportID, ok := uuidParam(c, "id", "report ID")
	if !ok {
		return nil
	}

	report, err := h.reportService.Get(c.UserContext(), userID, reportID)
	if err != nil {
		return reportError(c, err, "Failed to load report")
	}
	return c.JSON(report)
}

func (h *ReportHandler) MyReports(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}
	return h.history(c, userID, userID)
}

func (h *ReportHandler) UserReports(c *fiber.Ctx) error {
	viewerID, ok := currentUser(c)
	if !ok {
		return nil
	}
	ownerID, ok := uuidParam(c, "id", "user ID")
	if !ok {
		return nil
	}
	return h.history(c, viewerID, ownerID)
}

func (h *ReportHandler) history(c *fiber.Ctx, viewerID, ownerID uuid.UUID) error {
	limit, offset := pagination(c)
	resp, err := h.reportService.UserHistory(c.UserContext(), viewerID, ownerID, limit, offset)
	if err != nil {
		return reportError(c, err, "Failed to load reports")
	}
	return c.JSON(resp)
}

func (h *ReportHandler) FriendFeed(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return nil
	}

	limit, offset := pagination(c)
	reports := h.reportService.FriendFeed(c.UserContext(), userID, limit, offset)
	return c.JSON(dto.ReportListResponse{Reports: reports, Limit: limit, Offset: offset})
}
