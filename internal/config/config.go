package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Auth     AuthConfig
	Matching MatchingConfig
	Telegram TelegramConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string // JWT signing secret
}

// MatchingConfig contains cascade settings.
type MatchingConfig struct {
	OfferTTL time.Duration // how long a volunteer has to respond to an offer
	// MaxActiveAssignments caps concurrent active deliveries per volunteer.
	// Default 1: a volunteer becomes eligible again once the prior delivery
	// reaches 'delivered'.
	MaxActiveAssignments int
}

// TelegramConfig contains the optional admin alert channel settings.
// When Token is empty, alerts go to the log instead.
type TelegramConfig struct {
	Token       string
	AdminChatID int64
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	// Validate critical settings
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}

	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func load() (*Config, error) {
	ttlSeconds, err := getEnvInt("OFFER_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("OFFER_TTL_SECONDS must be positive, got %d", ttlSeconds)
	}
	maxActive, err := getEnvInt("MAX_ACTIVE_ASSIGNMENTS", 1)
	if err != nil {
		return nil, err
	}
	if maxActive <= 0 {
		return nil, fmt.Errorf("MAX_ACTIVE_ASSIGNMENTS must be positive, got %d", maxActive)
	}
	chatID, err := getEnvInt64("TELEGRAM_ADMIN_CHAT", 0)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "fulfillment.db"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Matching: MatchingConfig{
			OfferTTL:             time.Duration(ttlSeconds) * time.Second,
			MaxActiveAssignments: maxActive,
		},
		Telegram: TelegramConfig{
			Token:       getEnv("TELEGRAM_TOKEN", ""),
			AdminChatID: chatID,
		},
	}, nil
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// getEnvInt64 retrieves an environment variable as an int64 with a default fallback.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, OfferTTL: %s, MaxActive: %d, Auth: *** (masked) ***}",
		c.Database.Path, c.Matching.OfferTTL, c.Matching.MaxActiveAssignments)
}
