package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	httpapi "github.com/i474232898/airspace-emissions/internal/api/http"
	"github.com/i474232898/airspace-emissions/internal/common"
	"github.com/i474232898/airspace-emissions/internal/config"
	"github.com/i474232898/airspace-emissions/internal/emissions"
	"github.com/i474232898/airspace-emissions/internal/emissions/providers"
	"github.com/i474232898/airspace-emissions/internal/scheduler"
	"github.com/i474232898/airspace-emissions/internal/store"
	"github.com/i474232898/airspace-emissions/internal/visits"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	common.ConfigureLogging(cfg.LogLevel)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Providers with resilience (backoff + circuit breaker).
	provs := []emissions.Provider{
		providers.NewSequenceProvider(httpClient, cfg.EmissionsAPIURL),
		providers.NewTotalProvider(httpClient, cfg.EmissionsAPIURL),
	}

	// Core service orchestrating providers and store; metadata is passed through.
	service := emissions.NewService(memStore, provs).
		WithCatalog(providers.NewCatalogProvider(httpClient, cfg.EmissionsAPIURL))

	// Scheduler that periodically fetches and stores data.
	sched := scheduler.New(cfg.Airspaces, cfg.FetchInterval, cfg.HistoryWindow, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "airspace-emissions",
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
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "airspace-emissions",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, visits.NewTracker(visits.NewMemoryKV()), httpapi.Options{
		Airspaces: cfg.Airspaces,
		Chart:     cfg.ChartOptions(),
	})

	go func() {
		log.WithField("port", cfg.Port).Info("starting http server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}
