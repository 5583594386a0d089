package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/config"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/models"
	"github.com/waversurfing/waver-api/internal/session"
	"gorm.io/gorm"
)

// AdminRequired lets a request through when any of these holds:
// 1. X-Admin-Token matches ADMIN_TOKEN
// 2. the JWT email or sub is in ADMIN_EMAILS / ADMIN_USER_IDS
// 3. the user's role column is "admin"
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)
	adminUserIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		userID, err := session.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if contains(adminEmails, session.GetEmail(c)) || contains(adminUserIDs, userID.String()) {
			return c.Next()
		}

		if isAdminRole(db, c, userID) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func isAdminRole(db *gorm.DB, c *fiber.Ctx, userID uuid.UUID) bool {
	var user models.User
	if err := db.WithContext(c.UserContext()).Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
		return false
	}
	return user.Role == "admin"
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	if val == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(item, val) {
			return true
		}
	}
	return false
}
