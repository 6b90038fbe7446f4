package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/config"
)

// shutdownTimeout is how long in-flight batches get to finish on stop
const shutdownTimeout = 30 * time.Second

// Reporter receives task failures that were not batch rejections
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// Server is the worker server
type Server struct {
	logger *zap.Logger
	config *config.Config
	server *asynq.Server
	mux    *asynq.ServeMux
}

// RedisOpt builds the asynq connection options from configuration
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewServer creates a new worker server. reporter may be nil.
func NewServer(logger *zap.Logger, cfg *config.Config, batches *BatchWorker, reporter Reporter) *Server {
	server := asynq.NewServer(
		RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				cfg.Worker.Queue: 1,
			},
			ShutdownTimeout: shutdownTimeout,
			ErrorHandler:    taskErrorHandler(logger, reporter),
			HealthCheckFunc: func(err error) {
				if err != nil {
					logger.Warn("worker broker health check failed", zap.Error(err))
				}
			},
			Logger: &asynqLogger{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBatchProcess, batches.ProcessTask)

	return &Server{
		logger: logger,
		config: cfg,
		server: server,
		mux:    mux,
	}
}

// taskErrorHandler logs every failed task. Rejected batches are the client's
// fault and stay at warn level; everything else is an error and is reported.
func taskErrorHandler(logger *zap.Logger, reporter Reporter) asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		taskID, _ := asynq.GetTaskID(ctx)
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		fields := []zap.Field{
			zap.String("type", task.Type()),
			zap.String("task_id", taskID),
			zap.Int("retried", retried),
			zap.Int("max_retry", maxRetry),
			zap.Error(err),
		}

		if errors.Is(err, ErrRejected) {
			logger.Warn("batch task rejected", fields...)
			return
		}

		logger.Error("task processing failed", fields...)
		if reporter != nil {
			reporter.Report(ctx, err, map[string]string{"task_type": task.Type(), "task_id": taskID})
		}
	})
}

// Start runs the worker server until it is stopped
func (s *Server) Start() error {
	s.logger.Info("starting worker server",
		zap.Int("concurrency", s.config.Worker.Concurrency),
		zap.String("queue", s.config.Worker.Queue),
	)

	if err := s.server.Run(s.mux); err != nil {
		return fmt.Errorf("worker server stopped: %w", err)
	}
	return nil
}

// Stop stops the worker server
func (s *Server) Stop() {
	s.server.Shutdown()
}

// asynqLogger adapts zap.Logger to asynq.Logger
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
