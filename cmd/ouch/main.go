package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpapi "github.com/bcosynot/ouch/internal/api/http"
	"github.com/bcosynot/ouch/internal/config"
	"github.com/bcosynot/ouch/internal/observability"
	"github.com/bcosynot/ouch/internal/owie"
	"github.com/bcosynot/ouch/internal/store"
	"github.com/bcosynot/ouch/internal/weather"
)

func main() {
	// Load configuration (.env handling lives inside Load).
	cfg, err := config.Load()
	if err != nil {
		errLog := zerolog.New(os.Stderr)
		errLog.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "ouch").
		Logger()

	log.Info().Msg("starting server")

	metrics := observability.NewMetrics()

	// SQLite store for owie logs.
	owieStore, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("failed to open database")
	}
	defer owieStore.Close()

	// Shared HTTP client for the outbound weather call.
	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	// Weather client with resilience (backoff + jitter + circuit breaker).
	weatherClient := weather.NewClient(httpClient, cfg.OWAPIKey, cfg.Lat, cfg.Lon, metrics, log)

	// Core service tying weather fetches to persisted owie logs.
	service := owie.NewService(weatherClient, owieStore, metrics, log)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "ouch",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
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

	// Operational endpoints
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "ouch",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(cfg.Addr()); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
