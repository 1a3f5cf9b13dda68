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

	"ledger/internal/amqp"
	"ledger/internal/config"
	"ledger/internal/events"
	"ledger/internal/ledger"
	"ledger/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting ledgerd")

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Open the blob store
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer store.Close()

	// In-process change bus; every store mutation is published here
	bus := events.NewBus()
	defer bus.Close()

	// Optional AMQP bridge: forward changes to RabbitMQ for out-of-process
	// collaborators
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without broker", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized - changes will be published")
		}
	} else {
		logger.Info("AMQP disabled - changes stay in-process")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Wire the stores. The scanner must not run before both initial loads
	// complete, so load synchronously before anything ticks.
	transactions := ledger.NewTransactionStore(store, bus)
	accounts := ledger.NewAccountStore(store, bus, transactions)
	categories := ledger.NewCategoryStore(store, bus, transactions)
	creditCards := ledger.NewCreditCardStore(store, bus, transactions)
	defer func() {
		creditCards.Close()
		categories.Close()
		accounts.Close()
		transactions.Close()
	}()

	for name, load := range map[string]func(context.Context) error{
		"transactions": transactions.Load,
		"accounts":     accounts.Load,
		"categories":   categories.Load,
		"credit_cards": creditCards.Load,
	} {
		if err := load(ctx); err != nil {
			logger.Error("Failed to load collection", "collection", name, "error", err)
			os.Exit(1)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	// Bridge bus -> AMQP
	if amqpClient != nil {
		changes := bus.Subscribe(256)
		g.Go(func() error {
			for change := range changes {
				amqpClient.Notify(ctx, change)
			}
			return nil
		})
	}

	logger.Info("Invoice scanner configured",
		"interval", cfg.ScanInterval,
		"db", cfg.DBPath)

	// Run initial scan on startup, then on the ticker
	if count, err := creditCards.ProcessDueCards(ctx, time.Now()); err != nil {
		logger.Error("Initial due-date scan failed", "error", err)
	} else {
		logger.Info("Initial due-date scan complete", "invoices_injected", count)
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ScanInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				count, err := creditCards.ProcessDueCards(ctx, now)
				if err != nil {
					logger.Error("Due-date scan failed", "error", err)
				} else {
					logger.Info("Due-date scan complete",
						"invoices_injected", count,
						"next_check", now.Add(cfg.ScanInterval).Format("15:04:05"))
				}
			}
		}
	})

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	// Let the bus bridge drain before the AMQP connection closes
	bus.Close()
	if err := g.Wait(); err != nil {
		logger.Warn("Shutdown with error", "error", err)
	}

	logger.Info("ledgerd shutdown complete")
}
