package logging

import (
	"log/slog"
	"time"

	"github.com/waversurfing/waver-api/internal/models"
	"gorm.io/gorm"
)

// LogRetention is how long system_logs rows are kept.
const LogRetention = 30 * 24 * time.Hour

// StartCleanup runs a daily goroutine that deletes system_logs older than LogRetention.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := PurgeOld(db, time.Now()); err != nil {
					slog.Error("log cleanup failed", "error", err)
				} else if n > 0 {
					slog.Info("log cleanup completed", "deleted", n)
				}
			case <-done:
				return
			}
		}
	}()
}

// PurgeOld deletes system_logs older than LogRetention relative to now.
func PurgeOld(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("timestamp < ?", now.Add(-LogRetention)).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
