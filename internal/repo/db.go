// Package repo implements the record store of the marketplace on top of GORM.
// This file contains database bootstrapping helpers for SQLite (pure Go
// driver) and schema migrations.
//
// The default store is a shared-cache in-memory database. The whole state
// lives in a single connection that is never recycled; closing it discards
// every record.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/prompt-vault/internal/domain"
)

// MemoryDSN is the default data source: a named shared-cache in-memory database.
const MemoryDSN = "file:prompt_vault?mode=memory&cache=shared"

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound so callers can use either.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique constraint rejected an insert.
var ErrDuplicate = errors.New("duplicate")

// IsMemory reports whether dsn points at an in-memory SQLite database.
func IsMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	mem := IsMemory(path)
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if !mem {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if mem {
		// one connection owns the database; it must outlive every request
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxIdleTime(0)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA synchronous=NORMAL;")
	}
	db.Exec("PRAGMA busy_timeout=5000;")

	return db, nil
}

// EnableTracing registers the OpenTelemetry GORM plugin so every statement
// produces a span under the request trace.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin())
}

// AutoMigrate creates or updates the marketplace schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Prompt{},
		&domain.User{},
		&domain.Purchase{},
		&domain.Like{},
		&domain.UserRating{},
		&domain.Sequence{},
		&domain.Idempotency{},
	)
}

// isUniqueViolation detects UNIQUE/PRIMARY KEY failures. glebarez/sqlite
// often returns plain-text errors for them.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "constraint failed: primary key")
}
