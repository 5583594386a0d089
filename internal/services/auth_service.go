package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/config"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/mailer"
	"github.com/waversurfing/waver-api/internal/models"
	"github.com/waversurfing/waver-api/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email address not confirmed")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
)

const (
	confirmTokenTTL = 24 * time.Hour
	resetTokenTTL   = time.Hour
)

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer mailer.Sender
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, mail mailer.Sender) *AuthService {
	return &AuthService{
		db:     db,
		cfg:    cfg,
		mailer: mail,
		now:    time.Now,
	}
}

// Register creates an unconfirmed account and emails a confirmation link.
// The account cannot log in until the email is confirmed.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := validation.NormalizeEmail(req.Email)
	username := validation.NormalizeUsername(req.Username)
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New(),
		Email:    email,
		Username: username,
		Password: string(hash),
		Role:     "user",
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendConfirmation(ctx, &user)
	resp := toUserResponse(&user)
	return &resp, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", validation.NormalizeEmail(req.Email)).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	return s.generateTokenPair(ctx, &user)
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair issued.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	db := s.db.WithContext(ctx)
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	revoked := db.Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = false", stored.ID).
		Update("revoked", true)
	if revoked.Error != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", revoked.Error)
	}
	// Lost a race with a concurrent refresh of the same token.
	if revoked.RowsAffected == 0 {
		return nil, ErrInvalidToken
	}

	if s.now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	return s.generateTokenPair(ctx, &user)
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(req.RefreshToken)).
		Update("revoked", true).Error
}

func (s *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.consumeActionToken(tx, models.TokenPurposeConfirmEmail, token)
		if err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", stored.UserID).
			Update("email_confirmed", true).Error
	})
}

// ResendConfirmation never reveals whether the address has an account.
func (s *AuthService) ResendConfirmation(ctx context.Context, email string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", validation.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user.EmailConfirmed {
		return nil
	}
	s.sendConfirmation(ctx, &user)
	return nil
}

// ForgotPassword emails a reset link when the account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", validation.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	raw, err := s.issueActionToken(ctx, user.ID, models.TokenPurposePasswordReset, resetTokenTTL)
	if err != nil {
		return err
	}
	subject, body := mailer.PasswordReset(s.cfg.PublicURL, raw)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		slog.Error("failed to send password reset email", "error", err, "user_id", user.ID.String())
	}
	return nil
}

// ResetPassword sets a new password and signs the user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.consumeActionToken(tx, models.TokenPurposePasswordReset, req.Token)
		if err != nil {
			return err
		}
		// Following the emailed link proves ownership of the address.
		if err := tx.Model(&models.User{}).Where("id = ?", stored.UserID).Updates(map[string]interface{}{
			"password":        string(hash),
			"email_confirmed": true,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.RefreshToken{}).
			Where("user_id = ? AND revoked = false", stored.UserID).
			Update("revoked", true).Error
	})
}

// DeleteAccount removes the user and every row they own.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return db.Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			model interface{}
			where string
		}{
			{&models.RefreshToken{}, "user_id = @id"},
			{&models.ActionToken{}, "user_id = @id"},
			{&models.Report{}, "user_id = @id"},
			{&models.Favorite{}, "user_id = @id"},
			{&models.Friendship{}, "requester_id = @id OR receiver_id = @id"},
			{&models.Block{}, "blocker_id = @id OR blocked_id = @id"},
			{&models.Flag{}, "reporter_id = @id"},
			{&models.DeletionRequest{}, "user_id = @id"},
		}
		for _, step := range steps {
			if err := tx.Where(step.where, map[string]interface{}{"id": userID}).Delete(step.model).Error; err != nil {
				return fmt.Errorf("failed to delete owned rows: %w", err)
			}
		}
		return tx.Unscoped().Delete(&user).Error
	})
}

func (s *AuthService) sendConfirmation(ctx context.Context, user *models.User) {
	raw, err := s.issueActionToken(ctx, user.ID, models.TokenPurposeConfirmEmail, confirmTokenTTL)
	if err != nil {
		slog.Error("failed to issue confirmation token", "error", err, "user_id", user.ID.String())
		return
	}
	subject, body := mailer.ConfirmEmail(s.cfg.PublicURL, raw)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		slog.Error("failed to send confirmation email", "error", err, "user_id", user.ID.String())
	}
}

func (s *AuthService) issueActionToken(ctx context.Context, userID uuid.UUID, purpose string, ttl time.Duration) (string, error) {
	raw, err := randomToken()
	if err != nil {
		return "", err
	}
	record := models.ActionToken{
		ID:        uuid.New(),
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: hashToken(raw),
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store %s token: %w", purpose, err)
	}
	return raw, nil
}

// consumeActionToken marks a live token as used. It must run inside tx.
func (s *AuthService) consumeActionToken(tx *gorm.DB, purpose, raw string) (*models.ActionToken, error) {
	var stored models.ActionToken
	err := tx.Where("token_hash = ? AND purpose = ? AND used_at IS NULL", hashToken(raw), purpose).
		First(&stored).Error
	if err != nil {
		return nil, ErrInvalidToken
	}
	now := s.now()
	if now.After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}
	used := tx.Model(&models.ActionToken{}).
		Where("id = ? AND used_at IS NULL", stored.ID).
		Update("used_at", now)
	if used.Error != nil {
		return nil, used.Error
	}
	if used.RowsAffected == 0 {
		return nil, ErrInvalidToken
	}
	return &stored, nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toUserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"email":    user.Email,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawToken, err := randomToken()
	if err != nil {
		return "", err
	}

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func toUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             user.ID,
		Email:          user.Email,
		Username:       user.Username,
		EmailConfirmed: user.EmailConfirmed,
		CreatedAt:      user.CreatedAt,
	}
}

func randomToken() (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(rawBytes), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
