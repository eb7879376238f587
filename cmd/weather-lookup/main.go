package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/wfang22/weather-lookup/internal/api/http"
	"github.com/wfang22/weather-lookup/internal/config"
	"github.com/wfang22/weather-lookup/internal/logger"
	"github.com/wfang22/weather-lookup/internal/scheduler"
	"github.com/wfang22/weather-lookup/internal/store"
	"github.com/wfang22/weather-lookup/internal/weather"
	"github.com/wfang22/weather-lookup/internal/weather/fetchers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zlog := logger.WithModule("main")

	// Durable store: opened once, injected everywhere, held for the
	// process lifetime. A failure here is fatal.
	sqlStore, err := store.Open(cfg.DBPath)
	if err != nil {
		zlog.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer func() { _ = sqlStore.Close() }()

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	fetcher := fetchers.NewSeniverseFetcher(httpClient, cfg.SeniverseAPIKey, cfg.SeniverseAPIHost, cfg.ForecastDays)

	// Core service orchestrating cache and fetcher.
	service := weather.NewService(sqlStore, fetcher, cfg.CacheTTL)

	// Scheduler that keeps tracked cities warm.
	sched := scheduler.New(cfg.Cities, cfg.RefreshInterval, service)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-lookup",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-lookup",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}
