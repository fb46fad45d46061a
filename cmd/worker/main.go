package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/questline/internal/adapters/deepseek"
	natsadapter "github.com/samirrijal/questline/internal/adapters/nats"
	"github.com/samirrijal/questline/internal/adapters/postgres"
	"github.com/samirrijal/questline/internal/core/ports"
	"github.com/samirrijal/questline/internal/core/usecases"
	"github.com/samirrijal/questline/internal/pkg/config"
	"github.com/samirrijal/questline/internal/pkg/cryptoutil"
	"github.com/samirrijal/questline/internal/pkg/logging"
	"github.com/samirrijal/questline/internal/workflows"
)

func main() {
	cfg, err := config.Load("questline-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup("questline-worker", "info", "json")
	logger := slog.Default()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := postgres.New(ctx, cfg.Database.DSN())
	cancel()
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	var cipher *cryptoutil.Cipher
	if cfg.Crypto.Key != "" {
		cipher, err = cryptoutil.New(cfg.Crypto.Key)
		if err != nil {
			log.Fatalf("crypto: %v", err)
		}
	}

	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		logger.Warn("nats unavailable, events disabled", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	generator := deepseek.New(deepseek.Config{
		BaseURL: cfg.Generator.BaseURL,
		APIKey:  cfg.Generator.APIKey,
		Model:   cfg.Generator.Model,
		Timeout: time.Duration(cfg.Generator.TimeoutSeconds) * time.Second,
	}, logger)

	progressRepo := postgres.NewProgressRepo(db)
	profileRepo := postgres.NewProfileRepo(db, cipher)

	var events ports.EventPublisher
	if publisher != nil {
		events = publisher
	}
	progression := usecases.NewProgressionService(progressRepo, generator, events, usecases.ProgressionConfig{
		AcceptanceRadiusMeters: cfg.Quest.AcceptanceRadiusMeters,
		PointsPerWaypoint:      cfg.Quest.PointsPerWaypoint,
	})

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.RouteGenerationWorkflow)
	w.RegisterActivity(&workflows.RouteGenerationActivities{
		Generator:   generator,
		Progression: progression,
		Profiles:    profileRepo,
	})

	logger.Info("route generation worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
