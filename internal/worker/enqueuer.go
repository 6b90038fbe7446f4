package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/relaygate/relaygate/internal/domain"
)

// Enqueuer submits batch tasks to the worker queue
type Enqueuer struct {
	client   *asynq.Client
	queue    string
	maxRetry int
}

// NewEnqueuer creates an enqueuer on an existing asynq client
func NewEnqueuer(client *asynq.Client, queue string, maxRetry int) *Enqueuer {
	return &Enqueuer{
		client:   client,
		queue:    queue,
		maxRetry: maxRetry,
	}
}

// EnqueueBatch enqueues ops for asynchronous processing and returns the task id
func (e *Enqueuer) EnqueueBatch(ctx context.Context, ops []domain.Operation, principal *domain.Principal) (string, error) {
	task, err := NewBatchTask(&BatchPayload{Operations: ops, Principal: principal})
	if err != nil {
		return "", err
	}

	info, err := e.client.EnqueueContext(ctx, task,
		asynq.Queue(e.queue),
		asynq.MaxRetry(e.maxRetry),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue batch: %w", err)
	}
	return info.ID, nil
}

// Close closes the underlying client
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
