package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/session"
	"github.com/waversurfing/waver-api/internal/validation"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// bind parses and validates the request body into req. When it returns false
// the error response has already been written.
func bind(c *fiber.Ctx, v *validation.CustomValidator, req interface{}) bool {
	if err := c.BodyParser(req); err != nil {
		_ = errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := v.Validate(req); err != nil {
		var verrs *validation.Errors
		if errors.As(err, &verrs) {
			_ = c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse{
				Error: true, Message: "Validation failed", Fields: verrs.Fields,
			})
			return false
		}
		_ = errorJSON(c, fiber.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// currentUser returns the caller's id, writing a 401 when there is none.
func currentUser(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := session.GetUserID(c)
	if err != nil {
		_ = errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return id, true
}

// uuidParam parses a path parameter, writing a 400 when it is not a UUID.
func uuidParam(c *fiber.Ctx, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		_ = errorJSON(c, fiber.StatusBadRequest, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *fiber.Ctx) (limit, offset int) {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// location reads the client's IANA time zone from ?tz= so "today" matches the
// surfer's calendar day. Unknown or missing zones fall back to UTC.
func location(c *fiber.Ctx) *time.Location {
	name := c.Query("tz")
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
