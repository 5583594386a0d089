package models

import (
	"time"

	"github.com/google/uuid"
)

// DeletionRequest records a user's request to have their account removed by support.
type DeletionRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
