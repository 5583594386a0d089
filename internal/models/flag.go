package models

import (
	"time"

	"github.com/google/uuid"
)

// Flag is a user complaint about a surf report or another user, reviewed by admins.
type Flag struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReporterID uuid.UUID `gorm:"type:uuid;not null;index" json:"reporter_id"`
	TargetType string    `gorm:"not null;size:20" json:"target_type"`
	TargetID   uuid.UUID `gorm:"type:uuid;not null;index" json:"target_id"`
	Reason     string    `gorm:"not null;size:500" json:"reason"`
	Status     string    `gorm:"not null;default:'pending';size:20;index" json:"status"`
	AdminNote  string    `gorm:"size:1000" json:"admin_note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Reporter   User      `gorm:"foreignKey:ReporterID" json:"-"`
}
