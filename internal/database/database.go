package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/waversurfing/waver-api/internal/config"
	"github.com/waversurfing/waver-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected", "host", cfg.DBHost, "db", cfg.DBName)
	return nil
}

// Migrate creates or updates every Waver table.
func Migrate() error {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.ActionToken{},
		&models.Spot{},
		&models.Report{},
		&models.Favorite{},
		&models.Friendship{},
		&models.Flag{},
		&models.Block{},
		&models.DeletionRequest{},
		&models.RemoteConfig{},
		&models.SystemLog{},
	); err != nil {
		return err
	}
	// At most one friendship row per unordered pair of users.
	return DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_friendships_unordered_pair
		ON friendships (LEAST(requester_id, receiver_id), GREATEST(requester_id, receiver_id))`).Error
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
