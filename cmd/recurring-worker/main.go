package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"plata/internal/amqp"
	"plata/internal/config"
	"plata/internal/log"
	"plata/internal/services"
	"plata/internal/storage"
)

// recurring-worker sweeps every user with active rules on an interval and
// materializes whatever is due, independent of the on-demand HTTP endpoint.
func main() {
	_ = godotenv.Load()

	log.Setup()
	logger := log.ForComponent(log.ComponentEngine)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	var events services.EventPublisher
	if amqpClient != nil {
		events = amqpClient
	}
	generator := services.NewRecurringGenerator(repo, events)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Recurring generation sweep configured",
		"interval", cfg.GenerateInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.GenerateInterval)
	defer ticker.Stop()

	sweep(ctx, repo, generator)

	for {
		select {
		case <-ctx.Done():
			logger.Info("recurring-worker stopped")
			return
		case <-ticker.C:
			sweep(ctx, repo, generator)
		}
	}
}

// sweep runs generation for every user with at least one active rule. A user
// whose run fails does not stop the sweep.
func sweep(ctx context.Context, repo *storage.SQLiteRepository, generator *services.RecurringGenerator) {
	logger := log.ForComponent(log.ComponentEngine)

	userIDs, err := repo.ActiveRuleUserIDs(ctx)
	if err != nil {
		logger.Error("Failed to list users with active rules", "error", err)
		return
	}

	total := 0
	for _, userID := range userIDs {
		count, err := generator.GeneratePending(ctx, userID, time.Now())
		if err != nil {
			logger.Error("Generation sweep failed for user", "user_id", userID, "error", err)
			continue
		}
		total += count
	}

	logger.Info("Generation sweep complete", "users", len(userIDs), "generated", total)
}
