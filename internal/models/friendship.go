package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Friendship is the single edge between two users. The pair is unordered for lookups;
// RequesterID records who sent the request.
type Friendship struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friendships_pair,priority:1" json:"requester_id"`
	ReceiverID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friendships_pair,priority:2;index" json:"receiver_id"`
	Status      string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Requester   User      `gorm:"foreignKey:RequesterID" json:"-"`
	Receiver    User      `gorm:"foreignKey:ReceiverID" json:"-"`
}
