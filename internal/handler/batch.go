package handler

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/domain"
	"github.com/relaygate/relaygate/internal/middleware"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

// BatchRunner applies a batch of operations
type BatchRunner interface {
	Process(ctx context.Context, ops []domain.Operation, bc *domain.BatchContext) *domain.BatchResult
}

// BatchEnqueuer submits a batch for asynchronous processing
type BatchEnqueuer interface {
	EnqueueBatch(ctx context.Context, ops []domain.Operation, principal *domain.Principal) (string, error)
}

// BatchRequest is the body of POST /api/batch
type BatchRequest struct {
	Operations []domain.Operation `json:"operations"`
}

// BatchHandler handles batch endpoints
type BatchHandler struct {
	runner   BatchRunner
	store    domain.Store
	enqueuer BatchEnqueuer
	logger   *zap.Logger
}

// NewBatchHandler creates a new batch handler. A nil enqueuer disables async batches.
func NewBatchHandler(runner BatchRunner, store domain.Store, enqueuer BatchEnqueuer, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		runner:   runner,
		store:    store,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Process handles POST /api/batch. With ?async=true the batch is queued and
// 202 is returned with the task id.
func (h *BatchHandler) Process(c *fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return middleware.WriteError(c, apperrors.MalformedInput("Request body required"))
	}

	var req BatchRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return middleware.WriteError(c, apperrors.MalformedEncoding(err))
	}

	principal := middleware.GetPrincipal(c)

	if c.QueryBool("async") {
		return h.enqueue(c, req.Operations, principal)
	}

	result := h.runner.Process(c.UserContext(), req.Operations, &domain.BatchContext{
		Principal: principal,
		Store:     h.store,
	})

	status := fiber.StatusOK
	if len(result.Errors) == 1 && result.Errors[0].Index == domain.BatchIndexRejected {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(result)
}

func (h *BatchHandler) enqueue(c *fiber.Ctx, ops []domain.Operation, principal *domain.Principal) error {
	if h.enqueuer == nil {
		return middleware.WriteError(c, apperrors.ServiceUnavailable(nil))
	}

	taskID, err := h.enqueuer.EnqueueBatch(c.UserContext(), ops, principal)
	if err != nil {
		h.logger.Error("failed to enqueue batch",
			zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
		return middleware.WriteError(c, apperrors.ServiceUnavailable(err))
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"task_id": taskID,
		"total":   len(ops),
	})
}

// RegisterRoutes registers the batch route behind auth and permission checks
func (h *BatchHandler) RegisterRoutes(app fiber.Router, auth *middleware.AuthMiddleware) {
	app.Post("/api/batch",
		auth.RequireAuth(),
		middleware.RequirePermission(domain.PermissionBatchOperations),
		h.Process,
	)
}
