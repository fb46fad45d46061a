package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/questline/internal/adapters/deepseek"
	"github.com/samirrijal/questline/internal/adapters/http"
	natsadapter "github.com/samirrijal/questline/internal/adapters/nats"
	"github.com/samirrijal/questline/internal/adapters/postgres"
	"github.com/samirrijal/questline/internal/adapters/valkey"
	"github.com/samirrijal/questline/internal/core/ports"
	"github.com/samirrijal/questline/internal/core/usecases"
	"github.com/samirrijal/questline/internal/pkg/config"
	"github.com/samirrijal/questline/internal/pkg/cryptoutil"
	"github.com/samirrijal/questline/internal/pkg/logging"
	"github.com/samirrijal/questline/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("questline-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("questline-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolMetrics(ctx)

	// PII cipher
	var cipher *cryptoutil.Cipher
	if cfg.Crypto.Key != "" {
		cipher, err = cryptoutil.New(cfg.Crypto.Key)
		if err != nil {
			log.Fatalf("crypto: %v", err)
		}
	} else {
		slog.Warn("crypto key not set, profile PII stored in plaintext")
	}

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Route content generator
	generator := deepseek.New(deepseek.Config{
		BaseURL: cfg.Generator.BaseURL,
		APIKey:  cfg.Generator.APIKey,
		Model:   cfg.Generator.Model,
		Timeout: time.Duration(cfg.Generator.TimeoutSeconds) * time.Second,
	}, slog.Default())

	// Repos
	progressRepo := postgres.NewProgressRepo(db)
	profileRepo := postgres.NewProfileRepo(db, cipher)
	shopRepo := postgres.NewShopRepo(db)

	// Use cases
	var events ports.EventPublisher
	if publisher != nil {
		events = publisher
	}
	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}

	progressionSvc := usecases.NewProgressionService(progressRepo, generator, events, usecases.ProgressionConfig{
		AcceptanceRadiusMeters: cfg.Quest.AcceptanceRadiusMeters,
		PointsPerWaypoint:      cfg.Quest.PointsPerWaypoint,
	})
	profileSvc := usecases.NewProfileService(profileRepo, generator)
	shopSvc := usecases.NewShopService(shopRepo, cacheSvc)

	deps := &http.Dependencies{
		Progression: progressionSvc,
		Profiles:    profileSvc,
		Shop:        shopSvc,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Questline API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
