package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/waversurfing/waver-api/internal/dto"
)

// Pinger is a dependency the health check probes.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler takes a nil cache pinger when Redis is not configured.
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
		Cache:     "disabled",
	}
	if err := h.db(ctx); err != nil {
		resp.Status = "degraded"
		resp.DB = "unhealthy: " + err.Error()
	}
	if h.cache != nil {
		resp.Cache = "ok"
		if err := h.cache(ctx); err != nil {
			resp.Cache = "unhealthy: " + err.Error()
		}
	}

	if resp.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
