package models

import (
	"time"

	"github.com/google/uuid"
)

// Spot is immutable reference data: a named surf break placed in the region hierarchy.
type Spot struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string    `gorm:"not null;size:120;index" json:"name"`
	Region       string    `gorm:"not null;size:80;index:idx_spots_location,priority:1" json:"region"`
	SubRegion    *string   `gorm:"size:80;index:idx_spots_location,priority:2" json:"sub_region"`
	SubSubRegion *string   `gorm:"size:80;index:idx_spots_location,priority:3" json:"sub_sub_region"`
	CreatedAt    time.Time `json:"created_at"`
}
