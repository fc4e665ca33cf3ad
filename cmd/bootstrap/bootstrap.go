package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-backend/config"
	deliveryHttp "clinic-backend/internal/delivery/http"
	"clinic-backend/internal/delivery/http/handler"
	"clinic-backend/internal/delivery/http/middleware"
	"clinic-backend/internal/infrastructure/cache"
	"clinic-backend/internal/infrastructure/database"
	"clinic-backend/internal/infrastructure/lock"
	"clinic-backend/internal/infrastructure/messaging"
	"clinic-backend/internal/repository"
	"clinic-backend/internal/service"
	"clinic-backend/internal/usecase"
	"clinic-backend/pkg/jwt"
	"clinic-backend/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Publisher   messaging.EventPublisher
	Server      *http.Server
}

// LoadConfig reads the configuration and builds the logger it describes.
func LoadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, NewLogger(cfg.App), nil
}

// NewLogger configures the logrus logger
func NewLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	cfg, log, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log}
	log.Info("Configuration loaded successfully")

	db, err := database.NewPostgresConnection(cfg.DB, log)
	if err != nil {
		return nil, err
	}
	app.DB = db

	// Redis is optional: without it bookings fall back to an in-process lock.
	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		log.Warnf("Redis unavailable, using in-process booking lock: %v", err)
	} else {
		app.RedisClient = redisClient
	}

	publisher, err := messaging.NewEventPublisher(cfg.RabbitMQ, log)
	if err != nil {
		log.Warnf("RabbitMQ unavailable, appointment events will not be published: %v", err)
		publisher = messaging.NoopPublisher{}
	}
	app.Publisher = publisher

	app.Server = initializeServer(cfg, log, db, redisClient, publisher)
	return app, nil
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client, publisher messaging.EventPublisher) *http.Server {
	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	auditLogRepo := repository.NewAuditLogRepository()
	availabilityRepo := repository.NewDoctorAvailabilityRepository()
	doctorProfileRepo := cache.NewDoctorProfileCache(repository.NewDoctorProfileRepository(), cfg.Cache, log)

	// Booking lock
	var locker lock.Locker
	var denylist middleware.TokenRevocationChecker
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, cfg.Scheduling.LockTTL)
		denylist = cache.NewTokenDenylist(redisClient)
	} else {
		locker = lock.NewLocalLocker()
	}

	// Initialize services
	availabilityService := service.NewAvailabilityService(db, log, cfg.Scheduling, appointmentRepo, doctorProfileRepo)
	auditService := service.NewAuditService(db, log, auditLogRepo)

	// Initialize usecases
	appointmentUsecase := usecase.NewAppointmentUsecase(db, log, cfg.Scheduling, appointmentRepo, userRepo, availabilityService, auditService, locker, publisher)
	availabilityUsecase := usecase.NewAvailabilityUsecase(db, log, userRepo, availabilityService)
	doctorProfileUsecase := usecase.NewDoctorProfileUsecase(db, log, doctorProfileRepo)
	doctorScheduleUsecase := usecase.NewDoctorScheduleUsecase(db, log, doctorProfileRepo, availabilityRepo, doctorProfileRepo, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, appointmentRepo, auditService)

	// Initialize handlers
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, customValidator)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityUsecase, customValidator)
	doctorHandler := handler.NewDoctorHandler(doctorProfileUsecase)
	doctorScheduleHandler := handler.NewDoctorScheduleHandler(doctorScheduleUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)
	healthHandler := handler.NewHealthHandler(healthChecks(db, redisClient))

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, denylist, log)
	corsMiddleware := middleware.NewCORSMiddleware()
	loggingMiddleware := middleware.NewLoggingMiddleware(log)

	// Initialize router
	router := deliveryHttp.NewRouter(
		appointmentHandler,
		availabilityHandler,
		doctorHandler,
		doctorScheduleHandler,
		auditLogHandler,
		healthHandler,
		authMiddleware,
		corsMiddleware,
		loggingMiddleware,
	)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func healthChecks(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		app.Close()
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()
	app.Log.Info("Server shutdown complete")
	return nil
}

// Close closes all connections (database, redis, broker)
func (app *App) Close() {
	if app.Publisher != nil {
		if err := app.Publisher.Close(); err != nil {
			app.Log.Warnf("Failed to close event publisher: %v", err)
		}
	}

	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
