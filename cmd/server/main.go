package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	redisstore "github.com/gofiber/storage/redis"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/waversurfing/waver-api/internal/cache"
	"github.com/waversurfing/waver-api/internal/config"
	"github.com/waversurfing/waver-api/internal/database"
	"github.com/waversurfing/waver-api/internal/handlers"
	"github.com/waversurfing/waver-api/internal/logging"
	"github.com/waversurfing/waver-api/internal/mailer"
	"github.com/waversurfing/waver-api/internal/metrics"
	"github.com/waversurfing/waver-api/internal/middleware"
	"github.com/waversurfing/waver-api/internal/regions"
	"github.com/waversurfing/waver-api/internal/routes"
	"github.com/waversurfing/waver-api/internal/services"
	"github.com/waversurfing/waver-api/internal/submission"
	"github.com/waversurfing/waver-api/internal/validation"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdoutHandler := logging.Setup(!cfg.IsProduction())

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Region tree
	registry, err := regions.LoadOrDefault(cfg.RegionsConfigPath)
	if err != nil {
		slog.Warn("using built-in region tree", "path", cfg.RegionsConfigPath, "error", err)
	}
	slog.Info("region tree loaded", "regions", len(registry.Tree()))

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdoutHandler, pgLogHandler)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Redis: spot cache and shared limiter storage
	ctx := context.Background()
	var spotCache *cache.Cache
	var limiterStorage fiber.Storage
	if cfg.RedisAddr != "" {
		spotCache = cache.New(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.SpotCacheTTL,
		})
		limiterStorage = newLimiterStorage(cfg)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	validator := validation.New()
	mail := mailer.New(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	// Services
	authService := services.NewAuthService(database.DB, cfg, mail)
	userService := services.NewUserService(database.DB)
	moderationService := services.NewModerationService(database.DB)
	friendService := services.NewFriendService(database.DB, m)
	spotService := services.NewSpotService(database.DB, spotCache, registry)
	reportService := services.NewReportService(database.DB, submission.NewGate(cfg.ReportCooldown), moderationService, friendService, m)
	favoriteService := services.NewFavoriteService(database.DB, m)
	dashboardService := services.NewDashboardService(favoriteService, reportService, m)
	configService := services.NewRemoteConfigService(database.DB, cfg.ReportCooldown)

	// Seed default remote config values
	slog.Info("seeding remote config defaults")
	if err := configService.SeedDefaults(ctx); err != nil {
		slog.Error("remote config seed failed", "error", err)
	}

	var cachePing handlers.Pinger
	if spotCache != nil {
		cachePing = func(ctx context.Context) error { return spotCache.Client().Ping(ctx).Err() }
	}

	h := routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService, validator),
		User:       handlers.NewUserHandler(userService),
		Spot:       handlers.NewSpotHandler(spotService, reportService, validator),
		Report:     handlers.NewReportHandler(reportService, validator),
		Favorite:   handlers.NewFavoriteHandler(favoriteService, dashboardService),
		Friend:     handlers.NewFriendHandler(friendService),
		Moderation: handlers.NewModerationHandler(moderationService, validator),
		Config:     handlers.NewRemoteConfigHandler(configService, validator),
		Health: handlers.NewHealthHandler(func(ctx context.Context) error {
			return database.Ping()
		}, cachePing),
		Legal: handlers.NewLegalHandler(""),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(m.Middleware())
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(middleware.Maintenance(configService.InMaintenance))

	routes.Setup(app, cfg, database.DB, h, limiterStorage)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := spotCache.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
	if limiterStorage != nil {
		if err := limiterStorage.Close(); err != nil {
			slog.Error("limiter storage close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// newLimiterStorage keeps rate-limit windows in Redis so they hold across replicas.
func newLimiterStorage(cfg *config.Config) fiber.Storage {
	host, portStr, err := net.SplitHostPort(cfg.RedisAddr)
	if err != nil {
		host, portStr = cfg.RedisAddr, "6379"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 6379
	}
	return redisstore.New(redisstore.Config{
		Host:     host,
		Port:     port,
		Password: cfg.RedisPassword,
		Database: cfg.RedisDB,
		Reset:    false,
	})
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
