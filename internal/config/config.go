package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken      string
	DatabaseURL        string
	LogLevel           string
	LogFormat          string
	PrometheusPort     string
	Port               string
	MigrationsPath     string
	Location           *time.Location
	MissedGraceFactor  float64
	ChapterGraceFactor float64
	ReconcileInterval  time.Duration
	DBPool             Pool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first if present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
		Port:           getEnvOrDefault("PORT", "8080"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
	}

	// Required environment variables
	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	var err error
	if cfg.Location, err = time.LoadLocation(getEnvOrDefault("TIMEZONE", "Local")); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	if cfg.MissedGraceFactor, err = getFloatOrDefault("MISSED_GRACE_FACTOR", 1); err != nil {
		return nil, err
	}
	if cfg.ChapterGraceFactor, err = getFloatOrDefault("CHAPTER_GRACE_FACTOR", 2); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = time.ParseDuration(getEnvOrDefault("RECONCILE_INTERVAL", "1m")); err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_INTERVAL: %w", err)
	}
	if cfg.ReconcileInterval <= 0 {
		return nil, fmt.Errorf("RECONCILE_INTERVAL must be positive")
	}

	if cfg.DBPool.MaxOpenConns, err = getIntOrDefault("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if cfg.DBPool.MaxIdleConns, err = getIntOrDefault("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.DBPool.ConnMaxLifetime, err = time.ParseDuration(getEnvOrDefault("DB_CONN_MAX_LIFETIME", "5m")); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	return cfg, nil
}

// MemoryStore reports whether DATABASE_URL selects the in-process store
// ("memory://") instead of PostgreSQL.
func (c *Config) MemoryStore() bool {
	return strings.HasPrefix(c.DatabaseURL, "memory://")
}

// BotEnabled reports whether a Telegram token was configured
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", key, raw)
	}
	return v, nil
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}
