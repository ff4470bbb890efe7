package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/amqp"
	"moneta/internal/config"
	applog "moneta/internal/log"
	"moneta/internal/ratefeed"
	"moneta/internal/storage"
	"moneta/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentRateFeed})
	applog.SetDefault(logger)

	logger.Info("Starting rates-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	fetcher := ratefeed.NewFetcher(nil, cfg.RateFeedURL, cfg.RateFeedBases)

	// Fetched batches go out over AMQP when configured; otherwise they
	// are applied straight to the local cached tier.
	var publish func(context.Context, *amqp.RateBatchMessage) error
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publish = amqpClient.PublishRateBatch
		logger.Info("Publishing rate batches", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		rateWorker := worker.NewRateWorker(repo)
		publish = rateWorker.HandleRateBatch
		logger.Info("AMQP disabled - applying rate batches directly", "sqlite_db", cfg.SQLiteDBPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := func(now time.Time) {
		entries, err := fetcher.FetchAll(ctx)
		if err != nil {
			logger.Error("Rate fetch failed", "error", err)
			return
		}
		msg := amqp.NewRateBatchMessage(entries, now)
		if err := publish(ctx, msg); err != nil {
			logger.Error("Failed to hand off rate batch", "error", err, "pairs", len(entries))
			return
		}
		logger.Info("Rate batch handed off", "pairs", len(entries))
	}

	run(time.Now())

	ticker := time.NewTicker(cfg.RateFeedInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				run(now)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())
	cancel()
	logger.Info("Rates-worker shutdown complete")
}
