package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studytrack?sslmode=disable")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.PrometheusPort)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, 1.0, cfg.MissedGraceFactor)
	assert.Equal(t, 2.0, cfg.ChapterGraceFactor)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, Pool{MaxOpenConns: 25, MaxIdleConns: 5, ConnMaxLifetime: 5 * time.Minute}, cfg.DBPool)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("MISSED_GRACE_FACTOR", "2")
	t.Setenv("RECONCILE_INTERVAL", "30s")
	t.Setenv("TIMEZONE", "Asia/Kolkata")
	t.Setenv("DB_MAX_OPEN_CONNS", "10")
	t.Setenv("DB_CONN_MAX_LIFETIME", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, 2.0, cfg.MissedGraceFactor)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
	assert.Equal(t, 10, cfg.DBPool.MaxOpenConns)
	assert.Equal(t, time.Minute, cfg.DBPool.ConnMaxLifetime)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db")

	t.Setenv("MISSED_GRACE_FACTOR", "-1")
	_, err := Load()
	assert.ErrorContains(t, err, "MISSED_GRACE_FACTOR")

	t.Setenv("MISSED_GRACE_FACTOR", "")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = Load()
	assert.ErrorContains(t, err, "TIMEZONE")

	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("RECONCILE_INTERVAL", "soon")
	_, err = Load()
	assert.ErrorContains(t, err, "RECONCILE_INTERVAL")

	t.Setenv("RECONCILE_INTERVAL", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	_, err = Load()
	assert.ErrorContains(t, err, "DB_MAX_OPEN_CONNS")
}

func TestMemoryStore(t *testing.T) {
	assert.True(t, (&Config{DatabaseURL: "memory://"}).MemoryStore())
	assert.False(t, (&Config{DatabaseURL: "postgres://db"}).MemoryStore())
}
