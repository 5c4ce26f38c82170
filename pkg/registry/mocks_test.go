package registry_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/tenantbot/pkg/registry"
)

// MockRegistry is a mock implementation of registry.Registry.
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) FindByUUID(ctx context.Context, uuid string) (registry.Record, error) {
	args := m.Called(ctx, uuid)
	return args.Get(0).(registry.Record), args.Error(1)
}

func (m *MockRegistry) ListActiveUUIDs(ctx context.Context, ownerID int64) ([]string, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRegistry) Create(ctx context.Context, ownerID int64, uuid string, name *string) (registry.Record, error) {
	args := m.Called(ctx, ownerID, uuid, name)
	return args.Get(0).(registry.Record), args.Error(1)
}

func (m *MockRegistry) Delete(ctx context.Context, uuid string) error {
	args := m.Called(ctx, uuid)
	return args.Error(0)
}
