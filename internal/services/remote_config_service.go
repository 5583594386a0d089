package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/waversurfing/waver-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrConfigNotFound = errors.New("config not found")
	ErrConfigReadOnly = errors.New("config key is set by the server environment")
)

const (
	MaintenanceModeKey = "maintenance_mode"
	// ReportCooldownKey mirrors the submission gate's cooldown. It is derived
	// from server config and cannot be stored.
	ReportCooldownKey = "report_cooldown_minutes"
)

// maintenanceTTL is how long a maintenance_mode read is reused.
const maintenanceTTL = 5 * time.Second

// RemoteConfigService serves client-facing flags stored in remote_configs.
type RemoteConfigService struct {
	db             *gorm.DB
	reportCooldown time.Duration
	now            func() time.Time

	mu               sync.Mutex
	maintenance      bool
	maintenanceUntil time.Time
}

// NewRemoteConfigService takes the cooldown the submission gate enforces so
// clients are told the real value.
func NewRemoteConfigService(db *gorm.DB, reportCooldown time.Duration) *RemoteConfigService {
	return &RemoteConfigService{db: db, reportCooldown: reportCooldown, now: time.Now}
}

// Public returns every key with its value decoded according to its type.
func (s *RemoteConfigService) Public(ctx context.Context) (map[string]interface{}, error) {
	var configs []models.RemoteConfig
	if err := s.db.WithContext(ctx).Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(configs)+1)
	for _, cfg := range configs {
		result[cfg.Key] = decodeValue(cfg)
	}
	result[ReportCooldownKey] = int(s.reportCooldown / time.Minute)
	return result, nil
}

func decodeValue(cfg models.RemoteConfig) interface{} {
	switch cfg.Type {
	case "bool":
		v, _ := strconv.ParseBool(cfg.Value)
		return v
	case "int":
		v, _ := strconv.Atoi(cfg.Value)
		return v
	case "json":
		var v interface{}
		if err := json.Unmarshal([]byte(cfg.Value), &v); err != nil {
			return nil
		}
		return v
	default:
		return cfg.Value
	}
}

// Set creates or replaces a key.
func (s *RemoteConfigService) Set(ctx context.Context, key, value, typ string) (*models.RemoteConfig, error) {
	if key == ReportCooldownKey {
		return nil, ErrConfigReadOnly
	}
	if typ == "" {
		typ = "string"
	}
	if err := checkValueType(value, typ); err != nil {
		return nil, err
	}

	cfg := models.RemoteConfig{ID: uuid.New(), Key: key, Value: value, Type: typ}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
	}).Create(&cfg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	if key == MaintenanceModeKey {
		s.forgetMaintenance()
	}
	return &cfg, nil
}

func checkValueType(value, typ string) error {
	switch typ {
	case "bool":
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("value %q is not a bool", value)
		}
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("value %q is not an int", value)
		}
	case "json":
		if !json.Valid([]byte(value)) {
			return fmt.Errorf("value is not valid JSON")
		}
	}
	return nil
}

func (s *RemoteConfigService) Delete(ctx context.Context, key string) error {
	if key == ReportCooldownKey {
		return ErrConfigReadOnly
	}
	result := s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.RemoteConfig{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConfigNotFound
	}
	if key == MaintenanceModeKey {
		s.forgetMaintenance()
	}
	return nil
}

// InMaintenance reports whether maintenance_mode is on. Errors read as off.
// A read is reused for maintenanceTTL; changes made through Set or Delete on
// this instance take effect at once, other instances see them within the TTL.
func (s *RemoteConfigService) InMaintenance(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Before(s.maintenanceUntil) {
		return s.maintenance
	}

	var cfg models.RemoteConfig
	on := false
	if err := s.db.WithContext(ctx).Where("key = ?", MaintenanceModeKey).Take(&cfg).Error; err == nil {
		on, _ = decodeValue(cfg).(bool)
	}
	s.maintenance = on
	s.maintenanceUntil = now.Add(maintenanceTTL)
	return on
}

func (s *RemoteConfigService) forgetMaintenance() {
	s.mu.Lock()
	s.maintenanceUntil = time.Time{}
	s.mu.Unlock()
}

// SeedDefaults inserts the default keys that are missing. Existing values are kept.
func (s *RemoteConfigService) SeedDefaults(ctx context.Context) error {
	defaults := []models.RemoteConfig{
		{Key: "app_name", Value: "Waver", Type: "string"},
		{Key: MaintenanceModeKey, Value: "false", Type: "bool"},
		{Key: "min_app_version", Value: "1.0.0", Type: "string"},
		{Key: "announcement_title", Value: "", Type: "string"},
		{Key: "announcement_message", Value: "", Type: "string"},
	}
	for i := range defaults {
		defaults[i].ID = uuid.New()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, DoNothing: true}).
		Create(&defaults).Error
}
