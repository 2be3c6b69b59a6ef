package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/nea-sg/rain-radar-camera/internal/api/http"
	"github.com/nea-sg/rain-radar-camera/internal/config"
	"github.com/nea-sg/rain-radar-camera/internal/radar"
	"github.com/nea-sg/rain-radar-camera/internal/registry"
	"github.com/nea-sg/rain-radar-camera/internal/scheduler"
	"github.com/nea-sg/rain-radar-camera/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound tile fetches.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	if !cfg.VerifySSL {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	// In-memory entity state store with configured retention.
	states := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// The rain-map camera entity and its owner goroutine.
	camera := radar.NewCamera(cfg.Name, cfg.Prefix, radar.NewHTTPFetcher(httpClient), states)
	camera.Start()
	defer camera.Close()

	// Host-side entity registry.
	reg := registry.New()
	if err := reg.Add(camera); err != nil {
		log.Fatalf("failed to register camera entity: %v", err)
	}

	// Scheduler that periodically refreshes registered cameras.
	sched := scheduler.New(reg, cfg.FetchInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "rain-radar-camera",
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
			"service": "rain-radar-camera",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, reg, states)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
