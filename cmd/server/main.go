package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lab-inventory/internal/config"
	"lab-inventory/internal/database"
	"lab-inventory/internal/logger"
	"lab-inventory/internal/scheduler"
	"lab-inventory/internal/server"
	"lab-inventory/internal/store"

	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		// the logger level comes from config, so fall back to a default one
		logger.Must(logger.New("info")).Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = log.Sync() }()

	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	if err := os.MkdirAll(cfg.SupplyImagePath, 0o755); err != nil {
		log.Fatal("cannot create image directory", zap.String("path", cfg.SupplyImagePath), zap.Error(err))
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	st := store.New(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := database.Seed(ctx, st, cfg.Admin, log); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}

	sched, err := scheduler.New(cfg.ReorderDigestCron, cfg.Timezone, st, log)
	if err != nil {
		log.Fatal("invalid scheduler configuration", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		log.Fatal("scheduler failed to start", zap.Error(err))
	}
	defer sched.Stop()

	app := server.New(server.Deps{Config: cfg, Store: st, Logger: log})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTPPort))
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
