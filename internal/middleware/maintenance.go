package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/waversurfing/waver-api/internal/dto"
)

// maintenanceExempt stays reachable while maintenance_mode is on so clients can
// still read the flag and operators can turn it off.
var maintenanceExempt = []string{
	"/api/health",
	"/api/metrics",
	"/api/config",
	"/api/legal",
	"/api/admin",
}

// Maintenance answers 503 for every other route while inMaintenance reports true.
func Maintenance(inMaintenance func(ctx context.Context) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, prefix := range maintenanceExempt {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}
		if inMaintenance(c.UserContext()) {
			c.Set(fiber.HeaderRetryAfter, "300")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: true, Message: "Waver is down for maintenance. Please try again shortly.",
			})
		}
		return c.Next()
	}
}
