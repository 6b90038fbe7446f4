// Package batch applies a list of storage operations one at a time, isolating
// each item's failure from the rest of the batch.
package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
	"github.com/relaygate/relaygate/internal/pkg/metrics"
)

// Processor runs batches. It holds no per-batch state and is safe for
// concurrent use when the store is.
type Processor struct {
	logger *zap.Logger
}

// NewProcessor creates a batch processor
func NewProcessor(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{logger: logger}
}

// Process checks the batch preconditions once and then applies every
// operation in order. It always returns a result; only a rejected batch has
// an error at index -1.
func (p *Processor) Process(ctx context.Context, ops []domain.Operation, bc *domain.BatchContext) *domain.BatchResult {
	if err := checkPreconditions(ctx, bc); err != nil {
		p.logger.Error("batch rejected", zap.Error(err), zap.Int("total", len(ops)))
		metrics.RecordBatchRejected()
		return rejected(len(ops), err)
	}

	result := &domain.BatchResult{
		Results: make([]domain.ItemResult, 0, len(ops)),
		Errors:  []domain.ItemError{},
		Stats:   domain.BatchStats{Total: len(ops)},
	}

	for i, op := range ops {
		out := p.apply(ctx, bc.Store, i, op)
		fold(result, out)
	}
	result.Success = result.Stats.Failed == 0

	metrics.RecordBatch(result.Stats.Success, result.Stats.Failed, result.Stats.Skipped)
	p.logger.Info("batch processed",
		zap.Int("total", result.Stats.Total),
		zap.Int("success", result.Stats.Success),
		zap.Int("failed", result.Stats.Failed),
		zap.Int("skipped", result.Stats.Skipped),
	)
	return result
}

func checkPreconditions(ctx context.Context, bc *domain.BatchContext) error {
	switch {
	case ctx == nil || bc == nil:
		return apperrors.MalformedInput("Context is required")
	case bc.Principal == nil:
		return apperrors.MalformedInput("User context is required")
	case bc.Store == nil:
		return apperrors.MalformedInput("Database connection is required")
	case !bc.Principal.HasPermission(domain.PermissionBatchOperations):
		return apperrors.Forbidden("User lacks batch operation permission")
	}
	return nil
}

func rejected(total int, err error) *domain.BatchResult {
	return &domain.BatchResult{
		Success: false,
		Results: []domain.ItemResult{},
		Errors:  []domain.ItemError{{Index: domain.BatchIndexRejected, Message: apperrors.Classify(err).Message}},
		Stats:   domain.BatchStats{Total: total},
	}
}

type outcomeKind int

const (
	outcomeSucceeded outcomeKind = iota
	outcomeSkipped
	outcomeFailed
)

// outcome is the tagged result of one item
type outcome struct {
	kind   outcomeKind
	result domain.ItemResult
	err    domain.ItemError
}

func succeeded(i int, status domain.ItemStatus, id any) outcome {
	return outcome{kind: outcomeSucceeded, result: domain.ItemResult{Index: i, Status: status, ID: id}}
}

func skipped(i int) outcome {
	return outcome{kind: outcomeSkipped, result: domain.ItemResult{Index: i, Status: domain.ItemSkipped}}
}

func fold(r *domain.BatchResult, out outcome) {
	switch out.kind {
	case outcomeSucceeded:
		r.Results = append(r.Results, out.result)
		r.Stats.Success++
	case outcomeSkipped:
		r.Results = append(r.Results, out.result)
		r.Stats.Skipped++
	case outcomeFailed:
		r.Errors = append(r.Errors, out.err)
		r.Stats.Failed++
	}
}

func (p *Processor) apply(ctx context.Context, store domain.Store, i int, op domain.Operation) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = p.failed(i, op, apperrors.Internal("storage panic").WithError(fmt.Errorf("panic: %v", r)))
		}
	}()

	switch op.Type {
	case domain.OperationCreate:
		if len(op.Data) == 0 {
			return p.failed(i, op, apperrors.MissingField("data", "No data for create"))
		}
		if op.Target == "" {
			return p.failed(i, op, apperrors.MissingField("target", "No target for create"))
		}
		rec, err := store.Insert(ctx, op.Target, op.Data)
		if err != nil {
			return p.failed(i, op, err)
		}
		var recordID any
		if rec != nil {
			recordID = rec.ID
		}
		return succeeded(i, domain.ItemCreated, recordID)

	case domain.OperationUpdate:
		if len(op.Data) == 0 {
			return p.failed(i, op, apperrors.MissingField("data", "No data for update"))
		}
		if op.Target == "" {
			return p.failed(i, op, apperrors.MissingField("target", "No target for update"))
		}
		recordID, ok := op.RecordID()
		if !ok {
			return p.failed(i, op, apperrors.MissingField(domain.IDField, "No ID for update"))
		}
		if _, err := store.Update(ctx, op.Target, domain.Filter{domain.IDField: recordID}, op.Data); err != nil {
			return p.failed(i, op, err)
		}
		return succeeded(i, domain.ItemUpdated, recordID)

	case domain.OperationDelete:
		if op.Target == "" {
			return p.failed(i, op, apperrors.MissingField("target", "No target for delete"))
		}
		recordID, ok := op.RecordID()
		if !ok {
			return p.failed(i, op, apperrors.MissingField(domain.IDField, "No ID for delete"))
		}
		if _, err := store.Delete(ctx, op.Target, domain.Filter{domain.IDField: recordID}); err != nil {
			return p.failed(i, op, err)
		}
		return succeeded(i, domain.ItemDeleted, recordID)

	case domain.OperationSkip:
		return skipped(i)

	default:
		return p.failed(i, op, apperrors.UnknownOperationType(string(op.Type)))
	}
}

// failed records an item failure. Recognised failures keep their message;
// anything else is logged in full and reported generically.
func (p *Processor) failed(i int, op domain.Operation, err error) outcome {
	c := apperrors.Classify(err)

	msg := c.Message
	if c.Exposed {
		p.logger.Warn("batch item failed",
			zap.Int("index", i),
			zap.String("type", string(op.Type)),
			zap.String("kind", string(c.Kind)),
			zap.String("error", msg),
		)
	} else {
		msg = "Unexpected: " + c.Message
		p.logger.Error("batch item failed",
			zap.Int("index", i),
			zap.String("type", string(op.Type)),
			zap.Error(err),
		)
	}

	return outcome{
		kind: outcomeFailed,
		err:  domain.ItemError{Index: i, Message: fmt.Sprintf("Operation %d: %s", i, msg)},
	}
}
