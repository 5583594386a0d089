package models

import (
	"time"

	"github.com/google/uuid"
)

type Favorite struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_spot,priority:1" json:"user_id"`
	SpotID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_spot,priority:2;index" json:"spot_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Spot      Spot      `gorm:"foreignKey:SpotID" json:"-"`
}
