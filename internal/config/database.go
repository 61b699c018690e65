package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	pingAttempts     = 5
	pingTimeout      = 5 * time.Second
	initialPingDelay = time.Second
)

// Pool limits the PostgreSQL connection pool
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Database is the PostgreSQL pool shared by all repositories
type Database struct {
	*sql.DB
	logger *logrus.Logger
}

// NewDatabase opens the pool and waits for the server to answer. While
// PostgreSQL is still starting the ping is retried with a doubling delay.
func NewDatabase(ctx context.Context, databaseURL string, pool Pool, logger *logrus.Logger) (*Database, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := waitForDatabase(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"max_open_conns": pool.MaxOpenConns,
		"max_idle_conns": pool.MaxIdleConns,
	}).Info("Connected to PostgreSQL")
	return &Database{DB: db, logger: logger}, nil
}

func waitForDatabase(ctx context.Context, db *sql.DB, logger *logrus.Logger) error {
	delay := initialPingDelay
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == pingAttempts {
			break
		}

		logger.WithError(err).WithField("attempt", attempt).Warn("Database not ready, retrying")
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for database: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("failed to ping database after %d attempts: %w", pingAttempts, err)
}

// Migrate brings the schema up to the newest migration in migrationsPath and
// logs the resulting version.
func (d *Database) Migrate(migrationsPath string) error {
	driver, err := postgres.WithInstance(d.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to load migrations from %s: %w", migrationsPath, err)
	}
	m.Log = migrateLogger{d.logger}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty; fix it by hand and force the version", version)
	}
	d.logger.WithField("version", version).Info("Database schema is up to date")
	return nil
}

// migrateLogger routes golang-migrate output to logrus at debug level.
type migrateLogger struct {
	logger *logrus.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debugf("migrate: "+strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLogger) Verbose() bool {
	return l.logger.IsLevelEnabled(logrus.DebugLevel)
}
