package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dental-booking/config"
	deliveryHttp "dental-booking/internal/delivery/http"
	"dental-booking/internal/delivery/http/handler"
	"dental-booking/internal/delivery/http/middleware"
	"dental-booking/internal/infrastructure/cache"
	"dental-booking/internal/infrastructure/database"
	"dental-booking/internal/repository"
	"dental-booking/internal/scheduler"
	"dental-booking/internal/service"
	"dental-booking/internal/usecase"
	"dental-booking/pkg/jwt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Locker      service.BookingLocker
	Digest      *service.DigestService
}

// Load reads and validates the configuration and sets up the logger
func Load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg.App.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info("Configuration loaded successfully")

	return cfg, log, nil
}

// OpenDatabase connects to the configured database. sqlite and mysql
// schemas are brought up to date on connect; postgres uses the migrate command.
func OpenDatabase(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	db, err := database.NewConnection(cfg.DB, cfg.App.Env, cfg.Location())
	if err != nil {
		return nil, err
	}

	if cfg.DB.Driver != database.DriverPostgres {
		if err := database.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate %s schema: %w", cfg.DB.Driver, err)
		}
		log.Infof("%s schema is up to date", cfg.DB.Driver)
	}
	return db, nil
}

// NewCapacityUsecase wires the capacity rules for command line use
func NewCapacityUsecase(cfg *config.Config, log *logrus.Logger, db *gorm.DB) usecase.CapacityUsecase {
	capacityRepo := repository.NewCapacityRepository()
	auditService := service.NewAuditService(log, repository.NewAuditLogRepository())
	capacityService := service.NewCapacityService(log, capacityRepo, cfg.Booking.DefaultCapacity)
	return usecase.NewCapacityUsecase(db, log, capacityRepo, capacityService, auditService)
}

// New creates a new App instance with all dependencies initialized
func New(ctx context.Context) (*App, error) {
	cfg, log, err := Load()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log}

	// Initialize database
	db, err := OpenDatabase(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.RedisClient = redisClient

	// Booking lock
	switch cfg.Booking.LockBackend {
	case config.LockBackendLocal:
		app.Locker = service.NewLocalBookingLocker(log, cfg.Booking.LockWait)
	default:
		app.Locker = service.NewRedisBookingLocker(redisClient, log, cfg.Booking.LockTTL, cfg.Booking.LockWait)
	}
	log.Infof("Booking lock backend: %s", cfg.Booking.LockBackend)

	server, digest, err := initializeServer(cfg, log, db, redisClient, app.Locker)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Server = server
	app.Digest = digest

	return app, nil
}

// setupLogger configures the standard logrus logger
func setupLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// initializeServer creates and configures the HTTP server and the digest job
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client, locker service.BookingLocker) (*http.Server, *service.DigestService, error) {
	location := cfg.Location()

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator, err := handler.NewRequestValidator()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register validation rules: %w", err)
	}

	// Initialize repositories
	appointmentRepo := repository.NewAppointmentRepository()
	capacityRepo := repository.NewCapacityRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	uploadFs := afero.NewBasePathFs(afero.NewOsFs(), cfg.Upload.Dir)
	uploadService := service.NewUploadService(uploadFs, log, cfg.Upload.MaxBytes)
	capacityService := service.NewCapacityService(log, capacityRepo, cfg.Booking.DefaultCapacity)
	auditService := service.NewAuditService(log, auditLogRepo)
	assigner := scheduler.NewAssigner(cfg.Booking.HorizonDays)
	digestService := service.NewDigestService(db, log, appointmentRepo, capacityService, location)

	// Initialize usecases
	bookingUsecase := usecase.NewBookingUsecase(db, log, appointmentRepo, capacityService, uploadService, auditService, locker, assigner, location)
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, appointmentRepo, capacityService, uploadService, auditService, locker, location)
	capacityUsecase := usecase.NewCapacityUsecase(db, log, capacityRepo, capacityService, auditService)
	dashboardUsecase := usecase.NewDashboardUsecase(db, log, appointmentRepo, capacityService, location)
	authUsecase := usecase.NewAuthUsecase(db, log, cfg.Staff, jwtService, redisClient, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, redisClient, log)
	patientHandler := handler.NewPatientHandler(bookingUsecase, customValidator, log, cfg.Upload.MaxBytes)
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, bookingUsecase, customValidator, log)
	capacityHandler := handler.NewCapacityHandler(capacityUsecase, customValidator)
	dashboardHandler := handler.NewDashboardHandler(dashboardUsecase)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSOrigin)
	loggingMiddleware := middleware.NewLoggingMiddleware(log)

	// Initialize router
	router := deliveryHttp.NewRouter(
		healthHandler,
		patientHandler,
		authHandler,
		appointmentHandler,
		capacityHandler,
		dashboardHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
		loggingMiddleware,
		uploadService.Fs(),
	)

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}, digestService, nil
}

// Run starts the HTTP server and the digest job, then blocks until shutdown
func (app *App) Run() error {
	if app.Config.Cron.DigestSpec != "" {
		if err := app.Digest.Start(app.Config.Cron.DigestSpec); err != nil {
			app.Close()
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
	case err := <-errCh:
		runErr = fmt.Errorf("failed to start server: %w", err)
	}

	app.shutdown()
	return runErr
}

func (app *App) shutdown() {
	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close stops background jobs and closes all connections
func (app *App) Close() {
	if app.Digest != nil {
		app.Digest.Stop()
	}
	if app.Locker != nil {
		app.Locker.Stop()
	}

	// Close database connection
	if app.DB != nil {
		if sqlDB, err := app.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		_ = app.RedisClient.Close()
	}
}
