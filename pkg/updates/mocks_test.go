package updates_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/tenantbot/pkg/telegram"
)

// MockBot is a mock implementation of gateway.BotAPI.
type MockBot struct {
	mock.Mock
}

func (m *MockBot) GetMe(ctx context.Context) (telegram.User, error) {
	args := m.Called(ctx)
	return args.Get(0).(telegram.User), args.Error(1)
}

func (m *MockBot) SendMessage(ctx context.Context, chatID int64, text string, opts ...telegram.SendOption) (telegram.Message, error) {
	args := m.Called(ctx, chatID, text)
	return args.Get(0).(telegram.Message), args.Error(1)
}

func (m *MockBot) CopyMessage(ctx context.Context, chatID, fromChatID, messageID int64) (telegram.MessageID, error) {
	args := m.Called(ctx, chatID, fromChatID, messageID)
	return args.Get(0).(telegram.MessageID), args.Error(1)
}

func (m *MockBot) GetChatMember(ctx context.Context, chatID, userID int64) (telegram.ChatMember, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Get(0).(telegram.ChatMember), args.Error(1)
}

func (m *MockBot) Close() error {
	return m.Called().Error(0)
}
