package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/api"
	"github.com/relaygate/relaygate/internal/auth"
	"github.com/relaygate/relaygate/internal/batch"
	"github.com/relaygate/relaygate/internal/bootstrap"
	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/dispatch"
	"github.com/relaygate/relaygate/internal/handler"
	"github.com/relaygate/relaygate/internal/middleware"
	"github.com/relaygate/relaygate/internal/pkg/database"
	"github.com/relaygate/relaygate/internal/router"
	"github.com/relaygate/relaygate/internal/worker"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	// Connections
	Store    *bootstrap.Store
	Redis    *database.RedisDB
	Enqueuer *worker.Enqueuer

	// Core
	Resolver   *auth.Resolver
	Dispatcher *dispatch.Dispatcher
	Processor  *batch.Processor

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
	GatewayHandler *handler.GatewayHandler
	BatchHandler   *handler.BatchHandler
	HealthHandler  *handler.HealthHandler
}

// initDependencies initializes all application dependencies
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, sentryEnabled bool) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.Store = store

	if cfg.Storage.Driver == config.StorageMemory {
		if err := api.SeedUsers(ctx, store); err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to seed users: %w", err)
		}
	}

	var tokenCache auth.Cache
	if cfg.Redis.Enabled {
		redisDB, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		deps.Redis = redisDB
		tokenCache = database.NewCache(redisDB, cfg.Auth.TokenCacheTTL)
		deps.Enqueuer = worker.NewEnqueuer(asynq.NewClient(worker.RedisOpt(cfg.Redis)), cfg.Worker.Queue, cfg.Worker.MaxRetry)
	}

	deps.Resolver = bootstrap.Resolver(cfg.Auth, tokenCache, logger)
	deps.Processor = batch.NewProcessor(logger.Named("batch"))

	routes := router.New()
	api.NewHandlers(store).Register(routes)

	var reporter dispatch.Reporter
	if sentryEnabled {
		reporter = dispatch.NewSentryReporter()
	}
	deps.Dispatcher = dispatch.New(deps.Resolver, routes, dispatch.Config{
		Timeout:  cfg.Dispatch.RequestTimeout,
		Logger:   logger.Named("dispatch"),
		Reporter: reporter,
	})

	var enqueuer handler.BatchEnqueuer
	if deps.Enqueuer != nil {
		enqueuer = deps.Enqueuer
	}

	checks := []handler.Check{{Name: "store", Pinger: store}}
	if deps.Redis != nil {
		checks = append(checks, handler.Check{Name: "redis", Pinger: deps.Redis})
	}

	deps.AuthMiddleware = middleware.NewAuthMiddleware(deps.Resolver)
	deps.GatewayHandler = handler.NewGatewayHandler(deps.Dispatcher)
	deps.BatchHandler = handler.NewBatchHandler(deps.Processor, store, enqueuer, logger)
	deps.HealthHandler = handler.NewHealthHandler(appVersion, checks...)

	return deps, nil
}

// Close closes all connections
func (d *Dependencies) Close() {
	if d.Enqueuer != nil {
		_ = d.Enqueuer.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.Store != nil {
		d.Store.Close()
	}
}
