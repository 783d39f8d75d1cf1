package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "PORT", "CORS_ORIGIN", "ANALYTICS_CACHE_TTL",
		"RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW", "REPORT_REAPER_SCHEDULE", "CHANGE_FEED_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.CORSOrigin)
	assert.Equal(t, 30*time.Minute, cfg.CacheFreshness)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, "@every 1h", cfg.ReaperSchedule)
	assert.True(t, cfg.ChangeFeedEnabled)
	assert.Equal(t, ":5000", cfg.GetServerAddress())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ANALYTICS_CACHE_TTL", "60")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")
	t.Setenv("CHANGE_FEED_ENABLED", "false")
	t.Setenv("GIN_MODE", "release")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Minute, cfg.CacheFreshness)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.False(t, cfg.ChangeFeedEnabled)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ANALYTICS_CACHE_TTL", "soon")
	t.Setenv("RATE_LIMIT_MAX", "-5")
	t.Setenv("RATE_LIMIT_WINDOW", "forever")

	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.CacheFreshness)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     5433,
		DBUser:     "u",
		DBPassword: "p",
		DBName:     "sales",
		DBSSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=sales sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://u:p@db:5433/sales"
	assert.Equal(t, "postgres://u:p@db:5433/sales", cfg.DSN())
}
