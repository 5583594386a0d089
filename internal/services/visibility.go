package services

import (
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/models"
	"gorm.io/gorm"
)

// Viewer is the user a report listing is being built for.
type Viewer struct {
	ID      uuid.UUID
	Friends []uuid.UUID
	Blocked []uuid.UUID
}

func (v Viewer) isFriend(id uuid.UUID) bool {
	for _, f := range v.Friends {
		if f == id {
			return true
		}
	}
	return false
}

func (v Viewer) hasBlocked(id uuid.UUID) bool {
	for _, b := range v.Blocked {
		if b == id {
			return true
		}
	}
	return false
}

// CanSee applies the visibility rules: public to everyone, friends to the
// author and accepted friends, private to the author only. Authors the viewer
// has blocked are hidden.
func (v Viewer) CanSee(authorID uuid.UUID, visibility string) bool {
	if authorID == v.ID {
		return true
	}
	if v.hasBlocked(authorID) {
		return false
	}
	switch visibility {
	case models.VisibilityPublic:
		return true
	case models.VisibilityFriends:
		return v.isFriend(authorID)
	default:
		return false
	}
}

// Scope is CanSee as a query condition on the reports table.
func (v Viewer) Scope(db *gorm.DB) *gorm.DB {
	if len(v.Friends) > 0 {
		db = db.Where(
			"(reports.visibility = ? OR reports.user_id = ? OR (reports.visibility = ? AND reports.user_id IN ?))",
			models.VisibilityPublic, v.ID, models.VisibilityFriends, v.Friends,
		)
	} else {
		db = db.Where("(reports.visibility = ? OR reports.user_id = ?)", models.VisibilityPublic, v.ID)
	}
	if len(v.Blocked) > 0 {
		db = db.Where("reports.user_id NOT IN ?", v.Blocked)
	}
	return db
}
