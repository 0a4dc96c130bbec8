// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"path/filepath"
	"testing"

	"dental-booking/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB returns a migrated in-memory sqlite database. The pool is pinned
// to one connection so every query sees the same memory database, which also
// means transactions never overlap.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openSQLite(t, ":memory:", 1)
}

// OpenPooledTestDB returns a migrated file-backed sqlite database with several
// connections, so transactions from different goroutines run side by side.
func OpenPooledTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	return openSQLite(t, dsn, 8)
}

func openSQLite(t *testing.T, dsn string, maxConns int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&entity.Appointment{}, &entity.CapacityRule{}, &entity.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewLogger returns a logger that writes nowhere.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
