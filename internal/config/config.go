// internal/config/config.go
//
// Environment-driven configuration for the unshuffle server.

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Addr           string // listen address, e.g. :5175
	DBPath         string // SQLite file path
	LogLevel       string
	ClientOrigin   string // CORS allowlist origin for the web client
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	Production     bool
	SegmentCount   int
	MaxAttempts    int
}

// Load reads configuration from a .env file (if present) and
// environment variables, applying defaults when values are missing or
// invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:           ":" + envOr("PORT", "5175"),
		DBPath:         envOr("DB_PATH", "./data/unshuffle.db"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		ClientOrigin:   envOr("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:      envOr("JWT_SECRET", "dev-secret-change-me"),
		JWTExpiresDays: envIntOr("JWT_EXPIRES_DAYS", 14),
		CookieName:     envOr("COOKIE_NAME", "unshuffle_token"),
		Production:     os.Getenv("NODE_ENV") == "production",
		SegmentCount:   envIntOr("SEGMENT_COUNT", 8),
		MaxAttempts:    envIntOr("MAX_ATTEMPTS", 6),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("invalid int in env, using default")
	}
	return def
}
