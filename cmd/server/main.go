package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/middleware"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
	"github.com/relaygate/relaygate/internal/pkg/logger"
)

const appVersion = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "server"})
	defer func() { _ = logger.Sync() }()

	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		sentryConfig := middleware.NewSentryConfig(cfg.Sentry, cfg.Server.Env, "server", appVersion)
		if err := middleware.InitSentry(sentryConfig); err != nil {
			log.Error("failed to initialize Sentry", zap.Error(err))
			sentryEnabled = false
		} else {
			log.Info("Sentry initialized", zap.String("environment", sentryConfig.Environment))
			defer middleware.FlushSentry(sentryConfig.FlushTimeout)
		}
	}

	ctx := context.Background()
	deps, err := initDependencies(ctx, cfg, log, sentryEnabled)
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	app := fiber.New(fiber.Config{
		AppName:               "relaygate",
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          errorHandler(log),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.NewLoggerMiddleware(middleware.DefaultLoggerConfig(log)).Handler())
	app.Use(middleware.NewRecoverMiddleware(middleware.RecoverConfig{
		Logger:        log,
		SentryEnabled: sentryEnabled,
	}).Handler())
	if cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = float64(cfg.RateLimit.RequestsPerSecond)
		rl.Burst = cfg.RateLimit.Burst
		rl.IdleTTL = cfg.RateLimit.IdleTTL
		app.Use(middleware.NewRateLimitMiddleware(rl).Handler())
	}
	app.Use(middleware.NewMetricsMiddleware(middleware.DefaultMetricsConfig()).Handler())

	registerRoutes(app, deps)

	go func() {
		addr := cfg.Server.Addr()
		log.Info("starting server",
			zap.String("addr", addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("token_mode", cfg.Auth.TokenMode),
		)
		if err := app.Listen(addr); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
}

// errorHandler answers errors returned by fiber itself, such as an oversized
// body, in the same shape as classified failures
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
				"code":  string(apperrors.KindMalformedInput),
			})
		}

		log.Error("request error",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
		return middleware.WriteError(c, err)
	}
}
