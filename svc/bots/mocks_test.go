package bots_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/tenantbot/pkg/credentials"
	"github.com/dmitrymomot/tenantbot/pkg/registry"
	"github.com/dmitrymomot/tenantbot/pkg/telegram"
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
	return m.Called(ctx, uuid).Error(0)
}

// MockSecretStore is a mock implementation of bots.SecretStore.
type MockSecretStore struct {
	mock.Mock
}

func (m *MockSecretStore) Save(ctx context.Context, cred credentials.Credential) error {
	return m.Called(ctx, cred).Error(0)
}

func (m *MockSecretStore) Delete(ctx context.Context, tenantID string) error {
	return m.Called(ctx, tenantID).Error(0)
}

// MockCache is a mock implementation of bots.CredentialCache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, tenantID string) (credentials.Credential, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(credentials.Credential), args.Error(1)
}

func (m *MockCache) GetManyWithErrors(ctx context.Context, keys []string) (map[string]credentials.Credential, map[string]error) {
	args := m.Called(ctx, keys)
	return args.Get(0).(map[string]credentials.Credential), args.Get(1).(map[string]error)
}

func (m *MockCache) Put(tenantID string, cred credentials.Credential) {
	m.Called(tenantID, cred)
}

// MockInvalidator is a mock implementation of bots.Invalidator.
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateTenant(ctx context.Context, tenantID string) {
	m.Called(ctx, tenantID)
}

// MockBot is a mock implementation of bots.Bot.
type MockBot struct {
	mock.Mock
}

func (m *MockBot) GetMe(ctx context.Context) (telegram.User, error) {
	args := m.Called(ctx)
	return args.Get(0).(telegram.User), args.Error(1)
}

func (m *MockBot) SetWebhook(ctx context.Context, cfg telegram.WebhookConfig) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *MockBot) DeleteWebhook(ctx context.Context, dropPending bool) error {
	return m.Called(ctx, dropPending).Error(0)
}

func (m *MockBot) Close() error {
	return m.Called().Error(0)
}
