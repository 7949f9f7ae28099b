package database

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase connects to the database named by databaseURL and brings its
// schema up to date. Postgres URLs use the postgres driver; sqlite:// URLs,
// file: DSNs and bare paths use sqlite.
func NewDatabase(databaseURL string) (*gorm.DB, error) {
	dialector, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}
	return Open(dialector)
}

func dialectorFor(databaseURL string) (gorm.Dialector, error) {
	switch {
	case databaseURL == "":
		return nil, fmt.Errorf("database url is empty")
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return sqlite.Open(sqliteDSN(strings.TrimPrefix(databaseURL, "sqlite://"))), nil
	case strings.Contains(databaseURL, "://"):
		return nil, fmt.Errorf("unsupported database url scheme in %q", databaseURL)
	default:
		return sqlite.Open(sqliteDSN(databaseURL)), nil
	}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

// Open opens a connection with the given dialector and runs migrations. It is
// also used by tests with an in-memory sqlite dialector.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if isSQLite(db) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite connection pool: %w", err)
		}
		// SQLite only supports one writer at a time, and an in-memory database
		// only lives as long as its connection.
		sqlDB.SetMaxOpenConns(1)

		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
		}
	}

	if err := GetMigrator(db).Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("database ready", "dialect", db.Dialector.Name())
	return db, nil
}
