package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/relaygate/relaygate/internal/domain"
	"github.com/relaygate/relaygate/internal/pkg/circuitbreaker"
	"github.com/relaygate/relaygate/internal/testutil"
)

func TestProcess_MixedBatch(t *testing.T) {
	ctx := context.Background()
	store := new(testutil.MockStore)
	store.On("Insert", ctx, "users", map[string]any{"username": "carol"}).
		Return(&domain.Record{ID: int64(3)}, nil).Once()

	ops := []domain.Operation{
		{Type: domain.OperationCreate, Target: "users", Data: map[string]any{"username": "carol"}},
		{Type: domain.OperationUpdate, Target: "users", Data: map[string]any{"username": "x"}},
		{Type: domain.OperationSkip},
	}

	result := NewProcessor(nil).Process(ctx, ops, testutil.AdminBatchContext(store))

	assert.False(t, result.Success)
	assert.Equal(t, domain.BatchStats{Total: 3, Success: 1, Failed: 1, Skipped: 1}, result.Stats)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Equal(t, "Operation 1: No ID for update", result.Errors[0].Message)
	assert.Equal(t, []domain.ItemResult{
		{Index: 0, Status: domain.ItemCreated, ID: int64(3)},
		{Index: 2, Status: domain.ItemSkipped},
	}, result.Results)
	assert.Equal(t, []int{1}, result.FailedIndices())
	store.AssertExpectations(t)
}

func TestProcess_UpdateAndDeleteUseIDFilter(t *testing.T) {
	ctx := context.Background()
	store := new(testutil.MockStore)
	data := map[string]any{"id": int64(2), "email": "bob@new.example"}
	store.On("Update", ctx, "users", domain.Filter{"id": int64(2)}, data).Return(int64(1), nil).Once()
	store.On("Delete", ctx, "users", domain.Filter{"id": int64(1)}).Return(int64(1), nil).Once()

	ops := []domain.Operation{
		testutil.NewUpdateOperation("users", int64(2), map[string]any{"email": "bob@new.example"}),
		testutil.NewDeleteOperation("users", int64(1)),
	}

	result := NewProcessor(nil).Process(ctx, ops, testutil.AdminBatchContext(store))

	assert.True(t, result.Success)
	assert.Equal(t, domain.BatchStats{Total: 2, Success: 2}, result.Stats)
	assert.Equal(t, domain.ItemUpdated, result.Results[0].Status)
	assert.Equal(t, int64(2), result.Results[0].ID)
	assert.Equal(t, domain.ItemDeleted, result.Results[1].Status)
	assert.Empty(t, result.Errors)
	store.AssertExpectations(t)
}

func TestProcess_NullIDIsForwardedToStore(t *testing.T) {
	ctx := context.Background()
	store := new(testutil.MockStore)
	store.On("Delete", ctx, "users", domain.Filter{"id": nil}).Return(int64(0), nil).Once()

	ops := []domain.Operation{
		{Type: domain.OperationDelete, Target: "users", Data: map[string]any{"id": nil}},
	}

	result := NewProcessor(nil).Process(ctx, ops, testutil.AdminBatchContext(store))

	assert.True(t, result.Success)
	assert.Equal(t, domain.BatchStats{Total: 1, Success: 1}, result.Stats)
	assert.Equal(t, []domain.ItemResult{{Index: 0, Status: domain.ItemDeleted}}, result.Results)
	store.AssertExpectations(t)
}

func TestProcess_ItemValidation(t *testing.T) {
	tests := []struct {
		name string
		op   domain.Operation
		want string
	}{
		{"create without data", domain.Operation{Type: domain.OperationCreate, Target: "users"}, "Operation 0: No data for create"},
		{"create without target", domain.Operation{Type: domain.OperationCreate, Data: map[string]any{"a": 1}}, "Operation 0: No target for create"},
		{"update without data", domain.Operation{Type: domain.OperationUpdate, Target: "users"}, "Operation 0: No data for update"},
		{"update without target", domain.Operation{Type: domain.OperationUpdate, Data: map[string]any{"id": 1}}, "Operation 0: No target for update"},
		{"delete without target", domain.Operation{Type: domain.OperationDelete, Data: map[string]any{"id": 1}}, "Operation 0: No target for delete"},
		{"delete without id", domain.Operation{Type: domain.OperationDelete, Target: "users"}, "Operation 0: No ID for delete"},
		{"unknown type", domain.Operation{Type: "merge"}, "Operation 0: Unknown operation type: merge"},
		{"empty type", domain.Operation{}, "Operation 0: Unknown operation type: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(testutil.MockStore)
			result := NewProcessor(nil).Process(context.Background(), []domain.Operation{tt.op}, testutil.AdminBatchContext(store))

			assert.False(t, result.Success)
			assert.Equal(t, domain.BatchStats{Total: 1, Failed: 1}, result.Stats)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.want, result.Errors[0].Message)
			store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProcess_Preconditions(t *testing.T) {
	store := new(testutil.MockStore)
	ops := []domain.Operation{
		{Type: domain.OperationCreate, Target: "users", Data: map[string]any{"username": "x"}},
		{Type: domain.OperationSkip},
	}

	tests := []struct {
		name string
		bc   *domain.BatchContext
		want string
	}{
		{"no context", nil, "Context is required"},
		{"no principal", &domain.BatchContext{Store: store}, "User context is required"},
		{"no store", &domain.BatchContext{Principal: domain.AdminPrincipal("admin")}, "Database connection is required"},
		{"no permission", testutil.UserBatchContext(store), "User lacks batch operation permission"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewProcessor(nil).Process(context.Background(), ops, tt.bc)

			assert.False(t, result.Success)
			assert.Empty(t, result.Results)
			assert.NotNil(t, result.Results)
			assert.Equal(t, []domain.ItemError{{Index: -1, Message: tt.want}}, result.Errors)
			assert.Equal(t, domain.BatchStats{Total: 2}, result.Stats)
			assert.Empty(t, result.FailedIndices())
		})
	}
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_SkipOnlyIsIdempotent(t *testing.T) {
	store := new(testutil.MockStore)
	ops := []domain.Operation{{Type: domain.OperationSkip}, {Type: domain.OperationSkip}}
	p := NewProcessor(nil)

	first := p.Process(context.Background(), ops, testutil.AdminBatchContext(store))
	second := p.Process(context.Background(), ops, testutil.AdminBatchContext(store))

	assert.Equal(t, first, second)
	assert.True(t, first.Success)
	assert.Equal(t, domain.BatchStats{Total: 2, Skipped: 2}, first.Stats)
	store.AssertExpectations(t)
}

func TestProcess_EmptyBatch(t *testing.T) {
	result := NewProcessor(nil).Process(context.Background(), nil, testutil.AdminBatchContext(new(testutil.MockStore)))

	assert.True(t, result.Success)
	assert.Equal(t, domain.BatchStats{}, result.Stats)
	assert.Empty(t, result.Results)
	assert.Empty(t, result.Errors)
}

func TestProcess_StorageFailuresAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := new(testutil.MockStore)
	store.On("Insert", ctx, "users", map[string]any{"n": 1}).Return(nil, errors.New("pq: connection reset by peer")).Once()
	store.On("Insert", ctx, "users", map[string]any{"n": 2}).Return(nil, circuitbreaker.ErrCircuitOpen).Once()
	store.On("Delete", ctx, "users", domain.Filter{"id": 9}).Panic("driver bug").Once()
	store.On("Insert", ctx, "users", map[string]any{"n": 3}).Return(&domain.Record{ID: int64(10)}, nil).Once()

	core, logs := observer.New(zapcore.DebugLevel)
	ops := []domain.Operation{
		testutil.NewCreateOperation("users", map[string]any{"n": 1}),
		testutil.NewCreateOperation("users", map[string]any{"n": 2}),
		testutil.NewDeleteOperation("users", 9),
		testutil.NewCreateOperation("users", map[string]any{"n": 3}),
	}

	result := NewProcessor(zap.New(core)).Process(ctx, ops, testutil.AdminBatchContext(store))

	assert.Equal(t, domain.BatchStats{Total: 4, Success: 1, Failed: 3}, result.Stats)
	assert.Equal(t, []domain.ItemError{
		{Index: 0, Message: "Operation 0: Unexpected: Internal server error"},
		{Index: 1, Message: "Operation 1: Service unavailable"},
		{Index: 2, Message: "Operation 2: Unexpected: Internal server error"},
	}, result.Errors)
	assert.Equal(t, int64(10), result.Results[0].ID)
	assert.Equal(t, result.Stats.Total, result.Stats.Success+result.Stats.Failed+result.Stats.Skipped)

	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("batch processed").Len())
	store.AssertExpectations(t)
}
