package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/models"
	"github.com/waversurfing/waver-api/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const searchLimit = 25

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserResponse(&user)
	return &resp, nil
}

func (s *UserService) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}

// UsernameAvailable checks format first and only queries when the name is well formed.
func (s *UserService) UsernameAvailable(ctx context.Context, username string) (dto.UsernameAvailabilityResponse, error) {
	resp := dto.UsernameAvailabilityResponse{Username: validation.NormalizeUsername(username)}
	if !validation.ValidUsername(strings.TrimSpace(username)) {
		return resp, nil
	}
	resp.Valid = true

	var count int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where("username = ?", resp.Username).Count(&count).Error; err != nil {
		return resp, fmt.Errorf("failed to check username: %w", err)
	}
	resp.Available = count == 0
	return resp, nil
}

// Search matches usernames case-insensitively, excluding the caller.
func (s *UserService) Search(ctx context.Context, callerID uuid.UUID, q string) ([]dto.PublicUserResponse, error) {
	q = strings.TrimSpace(q)
	results := []dto.PublicUserResponse{}
	if q == "" {
		return results, nil
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("username ILIKE ? AND id <> ?", "%"+escapeLike(q)+"%", callerID).
		Order("username ASC").
		Limit(searchLimit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	for _, u := range users {
		results = append(results, dto.PublicUserResponse{ID: u.ID, Username: u.Username})
	}
	return results, nil
}

// RequestDeletion records that the user wants their account removed. Repeating it is a no-op.
func (s *UserService) RequestDeletion(ctx context.Context, userID uuid.UUID) error {
	req := models.DeletionRequest{ID: uuid.New(), UserID: userID}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&req).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
