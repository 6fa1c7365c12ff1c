package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/budgetanalyzer/currency-service/internal/core/ports"
	"github.com/budgetanalyzer/currency-service/internal/core/services"
	"github.com/budgetanalyzer/currency-service/internal/handlers"
	"github.com/budgetanalyzer/currency-service/internal/middleware"
	"github.com/budgetanalyzer/currency-service/internal/platform/cache"
	"github.com/budgetanalyzer/currency-service/internal/platform/config"
	"github.com/budgetanalyzer/currency-service/internal/platform/events"
	"github.com/budgetanalyzer/currency-service/internal/platform/lock"
	"github.com/budgetanalyzer/currency-service/internal/platform/metrics"
	"github.com/budgetanalyzer/currency-service/internal/providers/fred"
	"github.com/budgetanalyzer/currency-service/internal/repositories/database/pgsql"
	"github.com/budgetanalyzer/currency-service/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Currency Service API
// @version 1.0
// @description Currency exchange rate retrieval and import service.

// @host localhost:8080
// @BasePath /
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis backs the rate cache and the scheduler lock.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Error("Failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("Redis connection established.")

	var publisher ports.SeriesEventPublisher = events.NoopSeriesPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaSeriesPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("Kafka series event publisher configured.")
	} else {
		logger.Info("KAFKA_BROKERS not set, series events disabled.")
	}

	repos := pgsql.NewRepositoryProvider(dbPool)

	serviceContainer := services.NewServiceContainer(repos, services.ContainerDeps{
		Provider:      fred.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderTimeout),
		Cache:         cache.NewRedisRateCache(redisClient, cfg.RateCacheTTL),
		Locker:        lock.NewRedisLock(redisClient),
		Events:        publisher,
		ImportMetrics: metrics.NewImportMetrics(metrics.Registry),
		BaseCurrency:  cfg.BaseCurrencyCode,
		SchedulerCfg: services.ImportSchedulerConfig{
			LockName:     cfg.ImportLockName,
			LockMaxHold:  cfg.ImportLockMaxHold,
			LockMinHold:  cfg.ImportLockMinHold,
			MaxAttempts:  cfg.ImportMaxAttempts,
			InitialDelay: cfg.ImportRetryInitialDelay,
			Multiplier:   cfg.ImportRetryMultiplier,
		},
		Logger: logger,
	})

	// Timer-driven import cycles.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ImportCron, func() {
		serviceContainer.Scheduler.TriggerRun(context.Background())
	}); err != nil {
		logger.Error("Invalid IMPORT_CRON expression", slog.String("error", err.Error()))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info("Import scheduler started", slog.String("cron", cfg.ImportCron))

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, per-IP rate limiting)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	limiterRate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid RATE_LIMIT value", slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), limiterRate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations over a temporary
// database/sql connection, compatible with the main pgx pool.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	if err := migrationDB.Ping(); err != nil {
		migrationDB.Close()
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
