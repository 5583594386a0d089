package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/friendship"
	"github.com/waversurfing/waver-api/internal/services"
)

type FriendService interface {
	Status(ctx context.Context, me, other uuid.UUID) friendship.Status
	SendRequest(ctx context.Context, me, other uuid.UUID) (friendship.Status, error)
	Accept(ctx context.Context, me, other uuid.UUID) error
	Cancel(ctx context.Context, me, other uuid.UUID) error
	Remove(ctx context.Context, me, other uuid.UUID) error
	Friends(ctx context.Context, me uuid.UUID) []dto.FriendResponse
	IncomingRequests(ctx context.Context, me uuid.UUID) []dto.FriendRequestResponse
}

type FriendHandler struct {
	friendService FriendService
}

func NewFriendHandler(friendService FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// pair reads the caller and the :user_id they are acting on.
func pair(c *fiber.Ctx) (me, other uuid.UUID, ok bool) {
	if me, ok = currentUser(c); !ok {
		return
	}
	other, ok = uuidParam(c, "user_id", "user ID")
	return
}

func friendError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, friendship.ErrInvalidTransition):
		return errorJSON(c, fiber.StatusConflict, "That friend action is not possible right now")
	case errors.Is(err, services.ErrSelfFriend):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrBlocked):
		return errorJSON(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}
	slog.Error("friend action failed", "error", err)
	return errorJSON(c, fiber.StatusInternalServerError, "Failed to update friendship")
}

func (h *FriendHandler) Status(c *fiber.Ctx) error {
	me, other, ok := pair(c)
	if !ok {
		return nil
	}
	return c.JSON(dto.FriendStatusResponse{UserID: other, Status: h.friendService.Status(c.UserContext(), me, other)})
}

func (h *FriendHandler) SendRequest(c *fiber.Ctx) error {
	me, other, ok := pair(c)
	if !ok {
		return nil
	}

	status, err := h.friendService.SendRequest(c.UserContext(), me, other)
	if err != nil {
		return friendError(c, err)
	}
	return c.JSON(dto.FriendStatusResponse{UserID: other, Status: status})
}

func (h *FriendHandler) Accept(c *fiber.Ctx) error {
	return h.mutate(c, h.friendService.Accept, friendship.Friends)
}

func (h *FriendHandler) Cancel(c *fiber.Ctx) error {
	return h.mutate(c, h.friendService.Cancel, friendship.NotFriends)
}

func (h *FriendHandler) Remove(c *fiber.Ctx) error {
	return h.mutate(c, h.friendService.Remove, friendship.NotFriends)
}

func (h *FriendHandler) mutate(c *fiber.Ctx, op func(context.Context, uuid.UUID, uuid.UUID) error, next friendship.Status) error {
	me, other, ok := pair(c)
	if !ok {
		return nil
	}
	if err := op(c.UserContext(), me, other); err != nil {
		return friendError(c, err)
	}
	return c.JSON(dto.FriendStatusResponse{UserID: other, Status: next})
}

func (h *FriendHandler) List(c *fiber.Ctx) error {
	me, ok := currentUser(c)
	if !ok {
		return nil
	}
	return c.JSON(fiber.Map{"friends": h.friendService.Friends(c.UserContext(), me)})
}

func (h *FriendHandler) Requests(c *fiber.Ctx) error {
	me, ok := currentUser(c)
	if !ok {
		return nil
	}
	return c.JSON(fiber.Map{"requests": h.friendService.IncomingRequests(c.UserContext(), me)})
}
