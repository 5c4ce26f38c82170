package gateway

import (
	"context"
	"time"

	"github.com/dmitrymomot/tenantbot/pkg/credentials"
	"github.com/dmitrymomot/tenantbot/pkg/telegram"
)

// BotAPI is the outbound surface a session offers to business logic.
// *telegram.Client implements it.
type BotAPI interface {
	GetMe(ctx context.Context) (telegram.User, error)
	SendMessage(ctx context.Context, chatID int64, text string, opts ...telegram.SendOption) (telegram.Message, error)
	CopyMessage(ctx context.Context, chatID, fromChatID, messageID int64) (telegram.MessageID, error)
	GetChatMember(ctx context.Context, chatID, userID int64) (telegram.ChatMember, error)
	Close() error
}

// Connector opens a bot session for a credential.
type Connector interface {
	Connect(ctx context.Context, cred credentials.Credential) (BotAPI, error)
}

type ConnectorFunc func(ctx context.Context, cred credentials.Credential) (BotAPI, error)

func (f ConnectorFunc) Connect(ctx context.Context, cred credentials.Credential) (BotAPI, error) {
	return f(ctx, cred)
}

// TelegramConnector opens Bot API clients on the factory's shared pool.
// Opening a client does no I/O.
func TelegramConnector(f *telegram.Factory) Connector {
	return ConnectorFunc(func(_ context.Context, cred credentials.Credential) (BotAPI, error) {
		return f.New(cred.Token), nil
	})
}

// Session is the bot handle bound to one credential of one tenant. It never
// changes after creation; rotation replaces the whole session.
type Session struct {
	TenantID  string
	Version   int
	Bot       BotAPI
	CreatedAt time.Time

	token       string
	extraSecret *string
}

// NewSession binds bot to cred outside the gateway, for bots that are not
// tenants such as the management bot.
func NewSession(cred credentials.Credential, bot BotAPI) *Session {
	return &Session{
		TenantID:    cred.TenantID,
		Version:     cred.Version,
		Bot:         bot,
		CreatedAt:   time.Now(),
		token:       cred.Token,
		extraSecret: cred.ExtraSecret,
	}
}

// Token returns the credential token the session was opened with.
func (s *Session) Token() string { return s.token }

// ExtraSecret returns the tenant specific shared secret, if one is stored.
func (s *Session) ExtraSecret() (string, bool) {
	if s.extraSecret == nil {
		return "", false
	}
	return *s.extraSecret, true
}
