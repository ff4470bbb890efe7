package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/amqp"
	"moneta/internal/config"
	apphttp "moneta/internal/http"
	applog "moneta/internal/log"
	"moneta/internal/rates"
	"moneta/internal/services"
	"moneta/internal/storage"
	"moneta/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting moneta server")

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

	// Rate tiers in priority order: manual pins, then cached market
	// rates, then the bundled defaults.
	resolver := rates.NewResolver([]rates.Tier{
		rates.NewManualTier(repo),
		rates.NewCachedTier(repo),
		rates.NewDefaultTier(),
	})
	converter := rates.NewConverter(resolver)

	aggregation := services.NewAggregationService(repo, converter, cfg.TrendMonths)
	budgets := services.NewBudgetService(repo)
	recurring := services.NewRecurringProcessor(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// When AMQP is configured, consume rate batches published by the
	// rates-worker and apply them to the cached tier.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without rate feed", "error", err)
		} else {
			defer amqpClient.Close()
			rateWorker := worker.NewRateWorker(repo)
			go func() {
				if err := amqpClient.ConsumeRateBatches(ctx, rateWorker.HandleRateBatch); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Rate batch consumer stopped", "error", err)
				}
			}()
			logger.Info("Consuming rate batches", "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - cached rates only update via direct writes")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:           repo,
		Summaries:       aggregation,
		Budgets:         budgets,
		Recurring:       recurring,
		Resolver:        resolver,
		Converter:       converter,
		DefaultCurrency: cfg.DefaultCurrency,
		SummaryCacheTTL: cfg.SummaryCacheTTL,
		Logger:          logger,
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting HTTP server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
