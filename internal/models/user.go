package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a Waver account. Username is stored lowercase and is what other surfers see.
type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email          string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Username       string         `gorm:"not null;size:16;uniqueIndex" json:"username"`
	Password       string         `gorm:"not null" json:"-"`
	Role           string         `gorm:"size:20;default:'user'" json:"role"`
	EmailConfirmed bool           `gorm:"default:false" json:"email_confirmed"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
