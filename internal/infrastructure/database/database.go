package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dental-booking/config"
	"dental-booking/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// NewConnection opens the database selected by cfg.Driver. SQL statements
// are logged in development only.
func NewConnection(cfg config.DBConfig, env string, location *time.Location) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg, location)
	if err != nil {
		return nil, err
	}

	logMode := logger.Warn
	if env == "development" {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	if cfg.Driver == DriverSQLite {
		// one writer at a time; busy_timeout covers the rest
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	logrus.Infof("Successfully connected to %s database", cfg.Driver)

	return db, nil
}

func dialectorFor(cfg config.DBConfig, location *time.Location) (gorm.Dialector, error) {
	tz := "UTC"
	if location != nil {
		tz = location.String()
	}

	switch cfg.Driver {
	case DriverPostgres:
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, tz,
		)
		return postgres.Open(dsn), nil
	case DriverMySQL:
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name,
		)
		return mysql.Open(dsn), nil
	case DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return sqlite.Open(cfg.Path + "?_busy_timeout=5000&_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// AutoMigrate creates or updates the tables from the entities. It serves
// sqlite and mysql; postgres schemas are owned by the SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Appointment{}, &entity.CapacityRule{}, &entity.AuditLog{})
}
