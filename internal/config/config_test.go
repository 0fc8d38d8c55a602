package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kkolster/unshuffle-server/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, ":5175", cfg.Addr)
	assert.Equal(t, "./data/unshuffle.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "unshuffle_token", cfg.CookieName)
	assert.Equal(t, 14, cfg.JWTExpiresDays)
	assert.Equal(t, 8, cfg.SegmentCount)
	assert.Equal(t, 6, cfg.MaxAttempts)
	assert.False(t, cfg.Production)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_EXPIRES_DAYS", "30")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("SEGMENT_COUNT", "12")

	cfg := config.Load()
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 30, cfg.JWTExpiresDays)
	assert.Equal(t, 12, cfg.SegmentCount)
	assert.True(t, cfg.Production)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("MAX_ATTEMPTS", "lots")
	cfg := config.Load()
	assert.Equal(t, 6, cfg.MaxAttempts)
}
