package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/domain"
	"github.com/relaygate/relaygate/internal/pkg/circuitbreaker"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
	"github.com/relaygate/relaygate/internal/pkg/metrics"
)

// Pinger is implemented by stores that can report reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// GuardedStore adds a circuit breaker and metrics to a RecordStore
type GuardedStore struct {
	next    domain.RecordStore
	driver  string
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedStore wraps next. The driver name labels metrics and the breaker.
func NewGuardedStore(next domain.RecordStore, driver string, cfg circuitbreaker.Config, logger *zap.Logger) *GuardedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Name = "store." + driver
	cfg.IsFailure = isInfrastructureFailure
	cfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	return &GuardedStore{
		next:    next,
		driver:  driver,
		breaker: circuitbreaker.New(cfg),
	}
}

// isInfrastructureFailure keeps caller mistakes from opening the breaker
func isInfrastructureFailure(err error) bool {
	if err == nil {
		return false
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindInternal, apperrors.KindTimeout,
		apperrors.KindServiceUnavailable, apperrors.KindConnectionFailure:
		return true
	}
	return false
}

func guard[T any](s *GuardedStore, ctx context.Context, op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := circuitbreaker.ExecuteWithResult(s.breaker, ctx, fn)
	metrics.RecordStoreOp(s.driver, op, time.Since(start))
	if isInfrastructureFailure(err) {
		metrics.RecordStoreError(s.driver, op)
	}
	return v, err
}

// Insert implements domain.Store
func (s *GuardedStore) Insert(ctx context.Context, target string, data map[string]any) (*domain.Record, error) {
	return guard(s, ctx, "insert", func() (*domain.Record, error) {
		return s.next.Insert(ctx, target, data)
	})
}

// Update implements domain.Store
func (s *GuardedStore) Update(ctx context.Context, target string, filter domain.Filter, data map[string]any) (int64, error) {
	return guard(s, ctx, "update", func() (int64, error) {
		return s.next.Update(ctx, target, filter, data)
	})
}

// Delete implements domain.Store
func (s *GuardedStore) Delete(ctx context.Context, target string, filter domain.Filter) (int64, error) {
	return guard(s, ctx, "delete", func() (int64, error) {
		return s.next.Delete(ctx, target, filter)
	})
}

// List implements domain.RecordReader
func (s *GuardedStore) List(ctx context.Context, target string) ([]domain.Record, error) {
	return guard(s, ctx, "list", func() ([]domain.Record, error) {
		return s.next.List(ctx, target)
	})
}

// Get implements domain.RecordReader
func (s *GuardedStore) Get(ctx context.Context, target string, id any) (*domain.Record, error) {
	return guard(s, ctx, "get", func() (*domain.Record, error) {
		return s.next.Get(ctx, target, id)
	})
}

// Ping reports whether the wrapped store is reachable. An open breaker reports
// unavailable without touching the store.
func (s *GuardedStore) Ping(ctx context.Context) error {
	if s.breaker.State() == circuitbreaker.StateOpen {
		return circuitbreaker.ErrCircuitOpen
	}
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Breaker returns the breaker's current state
func (s *GuardedStore) Breaker() circuitbreaker.Snapshot {
	return s.breaker.Snapshot()
}
