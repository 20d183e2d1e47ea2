package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/domain"
)

// openStore opens a private in-memory store through OpenSQLite and migrates it.
func openStore(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestIsMemory(t *testing.T) {
	for _, dsn := range []string{":memory:", MemoryDSN, "file:x?mode=memory"} {
		if !IsMemory(dsn) {
			t.Fatalf("%q should be in-memory", dsn)
		}
	}
	if IsMemory("/var/lib/app.db") {
		t.Fatal("file path is not in-memory")
	}
}

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_File_SetsPragmas_AndPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var journalMode string
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}
	var busyMS int
	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", busyMS)
	}
	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}
}

func TestOpenSQLite_Memory_SingleConnection_AndAutoMigrate(t *testing.T) {
	db := openStore(t)
	sqlDB, _ := db.DB()
	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 1 {
		t.Fatalf("expected MaxOpenConnections=1, got %d", stats.MaxOpenConnections)
	}

	m := db.Migrator()
	for _, tbl := range []any{
		&domain.Prompt{}, &domain.User{}, &domain.Purchase{}, &domain.Like{},
		&domain.UserRating{}, &domain.Sequence{}, &domain.Idempotency{},
	} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	now := time.Now().UTC()
	p := &domain.Prompt{ID: 1, Title: "t", Content: "c", Author: "u1", Category: domain.CategoryOther, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert prompt: %v", err)
	}
	var got domain.Prompt
	if err := db.First(&got, "id = ?", 1).Error; err != nil || got.Author != "u1" {
		t.Fatalf("readback prompt failed: err=%v got=%+v", err, got)
	}
}

func TestEnableTracing_RegistersPlugin(t *testing.T) {
	db := openStore(t)
	if err := EnableTracing(db); err != nil {
		t.Fatalf("EnableTracing: %v", err)
	}
	// statements still run with the plugin installed
	var n int64
	if err := db.Model(&domain.Prompt{}).Count(&n).Error; err != nil {
		t.Fatalf("count with tracing: %v", err)
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
