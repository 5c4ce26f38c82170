package bots_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantbot/pkg/credentials"
	"github.com/dmitrymomot/tenantbot/pkg/gateway"
	"github.com/dmitrymomot/tenantbot/pkg/registry"
	"github.com/dmitrymomot/tenantbot/pkg/telegram"
	"github.com/dmitrymomot/tenantbot/pkg/updates"
	"github.com/dmitrymomot/tenantbot/svc/bots"
)

// MockChat is a mock implementation of gateway.BotAPI for the management bot.
type MockChat struct {
	mock.Mock
}

func (m *MockChat) GetMe(ctx context.Context) (telegram.User, error) {
	args := m.Called(ctx)
	return args.Get(0).(telegram.User), args.Error(1)
}

func (m *MockChat) SendMessage(ctx context.Context, chatID int64, text string, opts ...telegram.SendOption) (telegram.Message, error) {
	args := m.Called(ctx, chatID, text)
	return args.Get(0).(telegram.Message), args.Error(1)
}

func (m *MockChat) CopyMessage(ctx context.Context, chatID, fromChatID, messageID int64) (telegram.MessageID, error) {
	args := m.Called(ctx, chatID, fromChatID, messageID)
	return args.Get(0).(telegram.MessageID), args.Error(1)
}

func (m *MockChat) GetChatMember(ctx context.Context, chatID, userID int64) (telegram.ChatMember, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Get(0).(telegram.ChatMember), args.Error(1)
}

func (m *MockChat) Close() error {
	return m.Called().Error(0)
}

func command(userID int64, text string) []byte {
	id := strconv.FormatInt(userID, 10)
	return []byte(`{"update_id":1,"message":{"message_id":5,"from":{"id":` + id +
		`,"is_bot":false,"first_name":"O"},"chat":{"id":` + id + `,"type":"private"},"date":0,"text":"` + text + `"}}`)
}

func dispatch(t *testing.T, d *deps, chat *MockChat, body []byte) {
	t.Helper()
	disp := updates.NewDispatcher()
	bots.RegisterCommands(disp, d.service())
	session := gateway.NewSession(credentials.Credential{TenantID: "main", Token: "0:main"}, chat)
	require.NoError(t, disp.Dispatch(context.Background(), session, body))
}

func TestCommands(t *testing.T) {
	t.Parallel()

	t.Run("help", func(t *testing.T) {
		t.Parallel()
		chat := &MockChat{}
		chat.On("SendMessage", mock.Anything, int64(42), mock.MatchedBy(func(text string) bool {
			return text != "" && text[:3] == "<b>"
		})).Return(telegram.Message{}, nil).Once()

		dispatch(t, newDeps(), chat, command(42, "/start"))
		chat.AssertExpectations(t)
	})

	t.Run("addbot without token", func(t *testing.T) {
		t.Parallel()
		chat := &MockChat{}
		chat.On("SendMessage", mock.Anything, int64(42), "Send the token in the same message: /addbot &lt;token&gt;").
			Return(telegram.Message{}, nil).Once()

		dispatch(t, newDeps(), chat, command(42, "/addbot"))
		chat.AssertExpectations(t)
	})

	t.Run("addbot rejects a malformed token", func(t *testing.T) {
		t.Parallel()
		chat := &MockChat{}
		chat.On("SendMessage", mock.Anything, int64(42), "Telegram rejected this token. Copy it again from @BotFather.").
			Return(telegram.Message{}, nil).Once()

		dispatch(t, newDeps(), chat, command(42, "/addbot nonsense"))
		chat.AssertExpectations(t)
	})

	t.Run("mybots when empty", func(t *testing.T) {
		t.Parallel()
		d := newDeps()
		d.registry.On("ListActiveUUIDs", mock.Anything, int64(42)).Return([]string{}, nil).Once()
		chat := &MockChat{}
		chat.On("SendMessage", mock.Anything, int64(42), "You have no bots yet. Use /addbot to connect one.").
			Return(telegram.Message{}, nil).Once()

		dispatch(t, d, chat, command(42, "/mybots"))
		chat.AssertExpectations(t)
		d.assertExpectations(t)
	})

	t.Run("delbot refuses another owner's bot", func(t *testing.T) {
		t.Parallel()
		d := newDeps()
		d.registry.On("FindByUUID", mock.Anything, "t-a").Return(registry.Record{UUID: "t-a", OwnerID: 7}, nil).Once()
		chat := &MockChat{}
		chat.On("SendMessage", mock.Anything, int64(42), "No such bot among yours.").
			Return(telegram.Message{}, nil).Once()

		dispatch(t, d, chat, command(42, "/delbot t-a"))
		chat.AssertExpectations(t)
		d.assertExpectations(t)
	})

	t.Run("delbot removes an owned bot", func(t *testing.T) {
		t.Parallel()
		d := newDeps()
		d.registry.On("FindByUUID", mock.Anything, "t-a").Return(registry.Record{UUID: "t-a", OwnerID: 42}, nil).Once()
		d.cache.On("Get", mock.Anything, "t-a").Return(credentials.Credential{}, credentials.ErrCredentialUnavailable).Once()
		d.secrets.On("Delete", mock.Anything, "t-a").Return(nil).Once()
		d.sessions.On("InvalidateTenant", mock.Anything, "t-a").Once()
		d.registry.On("Delete", mock.Anything, "t-a").Return(nil).Once()
		chat := &MockChat{}
		chat.On("SendMessage", mock.Anything, int64(42), "Bot disconnected.").
			Return(telegram.Message{}, nil).Once()

		dispatch(t, d, chat, command(42, "/delbot t-a"))
		chat.AssertExpectations(t)
		d.assertExpectations(t)
	})
}
