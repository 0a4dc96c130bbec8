package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Staff   StaffConfig
	Booking BookingConfig
	Upload  UploadConfig
	Cron    CronConfig
}

type AppConfig struct {
	Port       string
	Env        string
	Timezone   string
	LogLevel   string
	CORSOrigin string
}

type DBConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Path     string // sqlite only
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// StaffConfig holds the single staff credential pair. PasswordHash (bcrypt)
// wins over the plain Password when both are set.
type StaffConfig struct {
	Username     string
	Password     string
	PasswordHash string
}

type BookingConfig struct {
	DefaultCapacity int
	HorizonDays     int
	LockBackend     string
	LockTTL         time.Duration
	LockWait        time.Duration
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

type CronConfig struct {
	DigestSpec string
}

const (
	LockBackendRedis = "redis"
	LockBackendLocal = "local"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_TIMEZONE", "Africa/Cairo")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "*")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_PATH", "./data/dental_appointments.db")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_ACCESS_EXPIRY", "12h")

	v.SetDefault("STAFF_USERNAME", "admin")

	v.SetDefault("BOOKING_DEFAULT_CAPACITY", 10)
	v.SetDefault("BOOKING_HORIZON_DAYS", 30)
	v.SetDefault("BOOKING_LOCK_BACKEND", LockBackendRedis)
	v.SetDefault("BOOKING_LOCK_TTL", "10s")
	v.SetDefault("BOOKING_LOCK_WAIT", "5s")

	v.SetDefault("UPLOAD_DIR", "./data")
	v.SetDefault("UPLOAD_MAX_BYTES", 10<<20)

	v.SetDefault("DIGEST_CRON", "0 7 * * *")
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	return load(viper.New(), ".env")
}

func load(v *viper.Viper, envFile string) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	accessExpiry, err := time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 12 * time.Hour
	}

	lockTTL, err := time.ParseDuration(v.GetString("BOOKING_LOCK_TTL"))
	if err != nil {
		lockTTL = 10 * time.Second
	}

	lockWait, err := time.ParseDuration(v.GetString("BOOKING_LOCK_WAIT"))
	if err != nil {
		lockWait = 5 * time.Second
	}

	cfg := &Config{
		App: AppConfig{
			Port:       v.GetString("APP_PORT"),
			Env:        v.GetString("APP_ENV"),
			Timezone:   v.GetString("APP_TIMEZONE"),
			LogLevel:   v.GetString("LOG_LEVEL"),
			CORSOrigin: v.GetString("CORS_ALLOWED_ORIGIN"),
		},
		DB: DBConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			Path:     v.GetString("DB_PATH"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: accessExpiry,
		},
		Staff: StaffConfig{
			Username:     v.GetString("STAFF_USERNAME"),
			Password:     v.GetString("STAFF_PASSWORD"),
			PasswordHash: v.GetString("STAFF_PASSWORD_HASH"),
		},
		Booking: BookingConfig{
			DefaultCapacity: v.GetInt("BOOKING_DEFAULT_CAPACITY"),
			HorizonDays:     v.GetInt("BOOKING_HORIZON_DAYS"),
			LockBackend:     strings.ToLower(v.GetString("BOOKING_LOCK_BACKEND")),
			LockTTL:         lockTTL,
			LockWait:        lockWait,
		},
		Upload: UploadConfig{
			Dir:      v.GetString("UPLOAD_DIR"),
			MaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		Cron: CronConfig{
			DigestSpec: v.GetString("DIGEST_CRON"),
		},
	}

	return cfg, nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.App.Port == "" {
		return errors.New("missing APP_PORT")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}

	switch c.DB.Driver {
	case "postgres", "mysql":
		if c.DB.Host == "" || c.DB.Name == "" || c.DB.User == "" {
			return fmt.Errorf("missing %s config (DB_HOST/DB_NAME/DB_USER)", c.DB.Driver)
		}
	case "sqlite":
		if c.DB.Path == "" {
			return errors.New("missing DB_PATH for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}

	if c.JWT.Secret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.Staff.Username == "" || (c.Staff.Password == "" && c.Staff.PasswordHash == "") {
		return errors.New("missing staff credentials (STAFF_USERNAME and STAFF_PASSWORD or STAFF_PASSWORD_HASH)")
	}

	if c.Booking.DefaultCapacity < 0 {
		return errors.New("BOOKING_DEFAULT_CAPACITY must be non-negative")
	}
	if c.Booking.HorizonDays <= 0 {
		return errors.New("BOOKING_HORIZON_DAYS must be positive")
	}
	if c.Booking.LockBackend != LockBackendRedis && c.Booking.LockBackend != LockBackendLocal {
		return fmt.Errorf("unsupported BOOKING_LOCK_BACKEND %q", c.Booking.LockBackend)
	}
	if c.Booking.LockTTL <= 0 || c.Booking.LockWait <= 0 {
		return errors.New("BOOKING_LOCK_TTL and BOOKING_LOCK_WAIT must be positive")
	}

	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// Location returns the clinic time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
