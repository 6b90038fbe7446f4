// Package testutil provides shared test doubles and fixtures for relaygate.
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/relaygate/relaygate/internal/domain"
)

// MockStore is a testify mock of domain.Store
type MockStore struct {
	mock.Mock
}

// Insert implements domain.Store
func (m *MockStore) Insert(ctx context.Context, target string, data map[string]any) (*domain.Record, error) {
	args := m.Called(ctx, target, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

// Update implements domain.Store
func (m *MockStore) Update(ctx context.Context, target string, filter domain.Filter, data map[string]any) (int64, error) {
	args := m.Called(ctx, target, filter, data)
	return args.Get(0).(int64), args.Error(1)
}

// Delete implements domain.Store
func (m *MockStore) Delete(ctx context.Context, target string, filter domain.Filter) (int64, error) {
	args := m.Called(ctx, target, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockTokenValidator is a testify mock of auth.TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

// ValidateToken implements auth.TokenValidator
func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (*domain.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}
