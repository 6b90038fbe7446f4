package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/batch"
	"github.com/relaygate/relaygate/internal/bootstrap"
	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/dispatch"
	"github.com/relaygate/relaygate/internal/middleware"
	"github.com/relaygate/relaygate/internal/pkg/logger"
	"github.com/relaygate/relaygate/internal/worker"
)

const appVersion = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "worker"})
	defer func() { _ = logger.Sync() }()

	log.Info("starting worker service")

	var reporter worker.Reporter
	if cfg.Sentry.DSN != "" {
		sentryConfig := middleware.NewSentryConfig(cfg.Sentry, cfg.Server.Env, "worker", appVersion)
		if err := middleware.InitSentry(sentryConfig); err != nil {
			log.Error("failed to initialize Sentry", zap.Error(err))
		} else {
			reporter = dispatch.NewSentryReporter()
			defer middleware.FlushSentry(sentryConfig.FlushTimeout)
		}
	}

	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn("worker uses an in-memory store; batch results are not visible to the server")
	}

	store, err := bootstrap.OpenStore(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	batches := worker.NewBatchWorker(log.Named("worker"), batch.NewProcessor(log.Named("batch")), store)
	workerServer := worker.NewServer(log, cfg, batches, reporter)

	errCh := make(chan error, 1)
	go func() {
		errCh <- workerServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down worker...")
		workerServer.Stop()
	case err := <-errCh:
		if err != nil {
			log.Error("worker server error", zap.Error(err))
		}
	}

	log.Info("worker stopped")
}
