package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/friendship"
)

type FriendStatusResponse struct {
	UserID uuid.UUID         `json:"user_id"`
	Status friendship.Status `json:"status"`
}

type FriendResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Since    time.Time `json:"since"`
}

type FriendRequestResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	RequestedAt time.Time `json:"requested_at"`
}

type UserSearchResponse struct {
	Users []PublicUserResponse `json:"users"`
}
