package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/cache"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/models"
	"github.com/waversurfing/waver-api/internal/regions"
	"gorm.io/gorm"
)

var ErrSpotNotFound = errors.New("spot not found")

type SpotService struct {
	db      *gorm.DB
	cache   *cache.Cache
	regions *regions.Registry
}

// NewSpotService accepts a nil cache.
func NewSpotService(db *gorm.DB, c *cache.Cache, reg *regions.Registry) *SpotService {
	return &SpotService{db: db, cache: c, regions: reg}
}

func (s *SpotService) Regions() []*regions.Node {
	return s.regions.Tree()
}

// List returns spots under the given region path, ordered by name. Empty
// levels are unfiltered. Results are cached per path.
func (s *SpotService) List(ctx context.Context, region, subRegion, subSubRegion string) ([]models.Spot, error) {
	key := cache.Key("spots", region, subRegion, subSubRegion)

	spots := []models.Spot{}
	hit, err := s.cache.GetJSON(ctx, key, &spots)
	if err != nil {
		slog.Warn("spot cache read failed", "error", err, "key", key)
	}
	if hit {
		return spots, nil
	}

	query := s.db.WithContext(ctx).Model(&models.Spot{})
	if region != "" {
		query = query.Where("region = ?", region)
	}
	if subRegion != "" {
		query = query.Where("sub_region = ?", subRegion)
	}
	if subSubRegion != "" {
		query = query.Where("sub_sub_region = ?", subSubRegion)
	}
	if err := query.Order("name ASC").Find(&spots).Error; err != nil {
		return nil, fmt.Errorf("failed to list spots: %w", err)
	}

	if err := s.cache.SetJSON(ctx, key, spots); err != nil {
		slog.Warn("spot cache write failed", "error", err, "key", key)
	}
	return spots, nil
}

// Search matches spot names case-insensitively.
func (s *SpotService) Search(ctx context.Context, q string) ([]models.Spot, error) {
	spots := []models.Spot{}
	q = strings.TrimSpace(q)
	if q == "" {
		return spots, nil
	}
	err := s.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+escapeLike(q)+"%").
		Order("name ASC").
		Limit(searchLimit).
		Find(&spots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search spots: %w", err)
	}
	return spots, nil
}

func (s *SpotService) Get(ctx context.Context, id uuid.UUID) (*models.Spot, error) {
	var spot models.Spot
	if err := s.db.WithContext(ctx).First(&spot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpotNotFound
		}
		return nil, err
	}
	return &spot, nil
}

// Create adds a reference spot. Its region path must exist in the region tree.
func (s *SpotService) Create(ctx context.Context, req *dto.CreateSpotRequest) (*models.Spot, error) {
	sub, subSub := deref(req.SubRegion), deref(req.SubSubRegion)
	if subSub != "" && sub == "" {
		return nil, fmt.Errorf("%w: sub_sub_region needs a sub_region", regions.ErrUnknownRegion)
	}
	if !s.regions.Exists(req.Region, sub, subSub) {
		return nil, fmt.Errorf("%w: %s", regions.ErrUnknownRegion, strings.Trim(strings.Join([]string{req.Region, sub, subSub}, " / "), " /"))
	}

	spot := models.Spot{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Region:       req.Region,
		SubRegion:    nilIfEmpty(sub),
		SubSubRegion: nilIfEmpty(subSub),
	}
	if err := s.db.WithContext(ctx).Create(&spot).Error; err != nil {
		return nil, fmt.Errorf("failed to create spot: %w", err)
	}

	if err := s.cache.DeletePrefix(ctx, cache.Key("spots")); err != nil {
		slog.Warn("spot cache invalidation failed", "error", err)
	}
	return &spot, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
