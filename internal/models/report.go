package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

// Report is a single surfer's observation of conditions at a spot.
// Rating is 0..3 (bad..epic), Height 0..9 (flat..double overhead), Crowd 0..3 (empty..packed).
type Report struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_reports_user_time,priority:1" json:"user_id"`
	SpotID     uuid.UUID `gorm:"type:uuid;not null;index:idx_reports_spot_time,priority:1" json:"spot_id"`
	Rating     int       `gorm:"not null;check:rating BETWEEN 0 AND 3" json:"rating"`
	Height     int       `gorm:"not null;check:height BETWEEN 0 AND 9" json:"height"`
	Crowd      int       `gorm:"not null;check:crowd BETWEEN 0 AND 3" json:"crowd"`
	Comment    *string   `gorm:"size:1100" json:"comment"`
	Visibility string    `gorm:"size:10;not null;default:'public'" json:"visibility"`
	Timestamp  time.Time `gorm:"not null;index:idx_reports_user_time,priority:2,sort:desc;index:idx_reports_spot_time,priority:2,sort:desc" json:"timestamp"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       User      `gorm:"foreignKey:UserID" json:"-"`
	Spot       Spot      `gorm:"foreignKey:SpotID" json:"-"`
}
