package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/metrics"
	"github.com/waversurfing/waver-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

func NewFavoriteService(db *gorm.DB, m *metrics.Metrics) *FavoriteService {
	return &FavoriteService{db: db, metrics: m}
}

// List returns the caller's favorite spots ordered by name. Lookup failures
// read as no favorites.
func (s *FavoriteService) List(ctx context.Context, userID uuid.UUID) []models.Spot {
	spots := []models.Spot{}
	err := s.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.spot_id = spots.id").
		Where("favorites.user_id = ?", userID).
		Order("spots.name ASC").
		Find(&spots).Error
	if err != nil {
		slog.Error("favorites lookup failed", "error", err, "user_id", userID.String())
		s.metrics.ReadDefaulted("favorites")
		return []models.Spot{}
	}
	return spots
}

// Toggle flips the favorite and returns the new state.
func (s *FavoriteService) Toggle(ctx context.Context, userID, spotID uuid.UUID) (bool, error) {
	favorited := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Spot{}).Where("id = ?", spotID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSpotNotFound
		}

		removed := tx.Where("user_id = ? AND spot_id = ?", userID, spotID).Delete(&models.Favorite{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected > 0 {
			return nil
		}

		fav := models.Favorite{ID: uuid.New(), UserID: userID, SpotID: spotID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error; err != nil {
			return err
		}
		favorited = true
		return nil
	})
	return favorited, err
}

// IsFavorite reports the favorite state. Lookup failures read as not favorited.
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, spotID uuid.UUID) bool {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND spot_id = ?", userID, spotID).
		Count(&count).Error
	if err != nil {
		slog.Error("favorite lookup failed", "error", err, "user_id", userID.String(), "spot_id", spotID.String())
		s.metrics.ReadDefaulted("favorite_status")
		return false
	}
	return count > 0
}
