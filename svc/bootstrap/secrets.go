package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/tenantbot/pkg/logger"
	"github.com/dmitrymomot/tenantbot/pkg/updates"
	"github.com/dmitrymomot/tenantbot/pkg/vault"
)

// Secret store paths.
const (
	PathMainBot         = "tgbot/main_bot"
	PathMainBotFallback = "tgbot/main"
	PathWebhookSecret   = "tgbot/common/webhook_secret"
	PathDatabaseDSN     = "tgbot/common/db_dsn"
	PathRedisDSN        = "tgbot/common/redis_dsn"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"prod"`
	UseRedis bool   `env:"USE_REDIS" envDefault:"true"`
}

// Production reports whether missing secrets are fatal.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "prod")
}

// Reader reads a secret with optional fallback paths. *vault.Client
// implements it.
type Reader interface {
	ReadOptional(ctx context.Context, path string, fallbacks ...string) (map[string]any, error)
}

// Secrets are the process wide secrets.
type Secrets struct {
	MainBotToken  string
	Admins        updates.AdminSet
	WebhookSecret string
	DatabaseDSN   string
	RedisDSN      string
}

// Load reads every secret. Values found in the store replace the ones in
// defaults, which usually come from the environment.
func Load(ctx context.Context, r Reader, cfg Config, defaults Secrets, log *slog.Logger) (Secrets, error) {
	log = logger.OrDiscard(log)
	l := loader{r: r, cfg: cfg, log: log}
	s := defaults

	if v, ok := l.field(ctx, PathWebhookSecret, "webhook_secret"); ok {
		s.WebhookSecret = v
	}
	if v, ok := l.field(ctx, PathDatabaseDSN, "db_dsn"); ok {
		s.DatabaseDSN = v
	}
	if v, ok := l.field(ctx, PathRedisDSN, "redis_dsn"); ok {
		s.RedisDSN = v
	}

	mainBot := l.read(ctx, PathMainBot, PathMainBotFallback)
	if v, ok := mainBot["bot_token"].(string); ok && v != "" {
		s.MainBotToken = v
	}
	if raw, ok := mainBot["admin_ids"]; ok {
		admins, err := updates.ParseAdminIDs(raw)
		if err != nil {
			return Secrets{}, fmt.Errorf("bootstrap: %s: %w", PathMainBot, err)
		}
		s.Admins = s.Admins.Union(admins)
	}

	if l.err != nil {
		return Secrets{}, l.err
	}
	if cfg.Production() {
		if missing := s.missing(cfg); len(missing) > 0 {
			return Secrets{}, fmt.Errorf("%w: %s", ErrMissingSecrets, strings.Join(missing, ", "))
		}
	}

	log.InfoContext(ctx, "bootstrap_ok",
		slog.String("env", cfg.Env),
		slog.Int("admins", s.Admins.Len()),
	)
	return s, nil
}

func (s Secrets) missing(cfg Config) []string {
	var out []string
	if s.WebhookSecret == "" {
		out = append(out, PathWebhookSecret+".webhook_secret")
	}
	if s.DatabaseDSN == "" {
		out = append(out, PathDatabaseDSN+".db_dsn")
	}
	if cfg.UseRedis && s.RedisDSN == "" {
		out = append(out, PathRedisDSN+".redis_dsn")
	}
	if s.MainBotToken == "" {
		out = append(out, PathMainBot+".bot_token")
	}
	return out
}

type loader struct {
	r   Reader
	cfg Config
	log *slog.Logger
	err error
}

// read returns the secret at path, or nil when it is absent or unreadable.
// A read failure in production is kept in l.err; absence is judged later
// against the merged values.
func (l *loader) read(ctx context.Context, path string, fallbacks ...string) map[string]any {
	data, err := l.r.ReadOptional(ctx, path, fallbacks...)
	switch {
	case err == nil:
		return data
	case errors.Is(err, vault.ErrNotFound):
	default:
		l.log.ErrorContext(ctx, "vault_read_failed", logger.Path(path), logger.Error(err))
		if l.cfg.Production() && l.err == nil {
			l.err = errors.Join(ErrSecretRead, err)
		}
	}
	return nil
}

func (l *loader) field(ctx context.Context, path, key string) (string, bool) {
	v, ok := l.read(ctx, path)[key].(string)
	return v, ok && v != ""
}
