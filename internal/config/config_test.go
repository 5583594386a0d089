package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REPORT_COOLDOWN", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.ReportCooldown)
	assert.Equal(t, "waver", cfg.DBName)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REPORT_COOLDOWN", "45m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, 45*time.Minute, cfg.ReportCooldown)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.IsProduction())
}

func TestParseHelpersFallBack(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("nope", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5m", time.Minute))
	assert.Equal(t, 7, parseInt("x", 7))
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "waver", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=waver port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
