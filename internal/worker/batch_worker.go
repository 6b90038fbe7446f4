package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/domain"
)

// TypeBatchProcess is the task type for an asynchronous batch
const TypeBatchProcess = "batch:process"

// ErrRejected marks a batch whose preconditions failed. It is never retried.
var ErrRejected = errors.New("batch rejected")

// BatchPayload is the payload for batch tasks. The principal was resolved
// when the batch was accepted.
type BatchPayload struct {
	Operations []domain.Operation `json:"operations"`
	Principal  *domain.Principal  `json:"principal"`
}

// NewBatchTask creates a batch task
func NewBatchTask(payload *BatchPayload, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch payload: %w", err)
	}
	opts = append([]asynq.Option{asynq.Timeout(10 * time.Minute)}, opts...)
	return asynq.NewTask(TypeBatchProcess, data, opts...), nil
}

// BatchRunner applies a batch of operations
type BatchRunner interface {
	Process(ctx context.Context, ops []domain.Operation, bc *domain.BatchContext) *domain.BatchResult
}

// BatchWorker executes batch tasks
type BatchWorker struct {
	logger *zap.Logger
	runner BatchRunner
	store  domain.Store
}

// NewBatchWorker creates a new batch worker
func NewBatchWorker(logger *zap.Logger, runner BatchRunner, store domain.Store) *BatchWorker {
	return &BatchWorker{
		logger: logger,
		runner: runner,
		store:  store,
	}
}

// ProcessTask processes a batch task. Item failures are part of a completed
// batch and do not fail the task; re-running would repeat applied creates.
func (w *BatchWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload BatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal batch payload: %v: %w", err, asynq.SkipRetry)
	}

	taskID, _ := asynq.GetTaskID(ctx)
	log := w.logger.With(zap.String("task_id", taskID))
	log.Info("processing batch", zap.Int("total", len(payload.Operations)))

	result := w.runner.Process(ctx, payload.Operations, &domain.BatchContext{
		Principal: payload.Principal,
		Store:     w.store,
	})

	if isRejected(result) {
		return fmt.Errorf("%w: %s: %w", ErrRejected, result.Errors[0].Message, asynq.SkipRetry)
	}

	if rw := t.ResultWriter(); rw != nil {
		data, _ := json.Marshal(result)
		if _, err := rw.Write(data); err != nil {
			log.Warn("failed to write batch result", zap.Error(err))
		}
	}

	log.Info("batch task completed",
		zap.Bool("success", result.Success),
		zap.Int("failed", result.Stats.Failed),
		zap.Ints("failed_indices", result.FailedIndices()),
	)
	return nil
}

func isRejected(r *domain.BatchResult) bool {
	return len(r.Errors) == 1 && r.Errors[0].Index == domain.BatchIndexRejected
}
