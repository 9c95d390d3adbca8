package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/warunglabs/kasirpos-backend/internal/inventory"
	"github.com/warunglabs/kasirpos-backend/internal/loyalty"
	"github.com/warunglabs/kasirpos-backend/internal/reconcile"
	"github.com/warunglabs/kasirpos-backend/pkg/config"
	"github.com/warunglabs/kasirpos-backend/pkg/db"
	"github.com/warunglabs/kasirpos-backend/pkg/logger"
	"github.com/warunglabs/kasirpos-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconcile-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "reconcile-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	gormDB := dbClient.DB()

	inventoryService, err := inventory.NewService(inventory.NewRepository(gormDB), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	loyaltyService, err := loyalty.NewService(loyalty.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create loyalty service", err)
		os.Exit(1)
	}

	worker, err := reconcile.NewWorker(
		outbox.NewRepository(gormDB),
		inventoryService,
		loyaltyService,
		dbClient,
		logg,
		reconcile.Config{
			BatchSize:   cfg.Reconcile.BatchSize,
			MaxAttempts: cfg.Reconcile.MaxAttempts,
			Interval:    cfg.Reconcile.PollInterval,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logg.Error(ctx, "reconcile worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "reconcile worker shut down")
}
