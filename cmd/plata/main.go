package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"plata/internal/amqp"
	"plata/internal/config"
	apphttp "plata/internal/http"
	"plata/internal/log"
	"plata/internal/services"
	"plata/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	log.Setup()
	logger := log.ForComponent(log.ComponentApp)

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

	// AMQP is optional: without a broker the engine still generates, it just
	// skips the notification events.
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
	netWorth := services.NewNetWorthService(repo)

	server := apphttp.NewServer(apphttp.ServerConfig{
		Port:             cfg.Port,
		Sessions:         repo,
		Generator:        generator,
		Rules:            repo,
		RuleWriter:       repo,
		NetWorth:         netWorth,
		Notifications:    repo,
		DB:               repo,
		DefaultLocale:    cfg.DefaultLocale,
		NetWorthCacheTTL: cfg.NetWorthCacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("plata server started", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}
