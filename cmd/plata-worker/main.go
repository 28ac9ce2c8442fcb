package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appamqp "plata/internal/amqp"
	"plata/internal/config"
	"plata/internal/format"
	"plata/internal/log"
	"plata/internal/storage"
	"plata/internal/worker"
)

// plata-worker consumes generated-transaction events and writes localized
// notifications for them.
func main() {
	_ = godotenv.Load()

	log.Setup()
	logger := log.ForComponent(log.ComponentWorker)

	logger.Info("Starting plata-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notification worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := appamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	notifier := worker.NewNotificationWorker(repo, format.NewCache())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Consuming generated-transaction events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	err = amqpClient.ConsumeTransactionGenerated(ctx, func(msg *appamqp.TransactionGeneratedMessage) error {
		return notifier.HandleGenerated(ctx, msg)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("Consumer stopped unexpectedly", "error", err)
		os.Exit(1)
	}

	logger.Info("plata-worker stopped")
}
