package bots

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantbot/pkg/credentials"
	"github.com/dmitrymomot/tenantbot/pkg/logger"
	"github.com/dmitrymomot/tenantbot/pkg/registry"
	"github.com/dmitrymomot/tenantbot/pkg/scope"
	"github.com/dmitrymomot/tenantbot/pkg/telegram"
)

// tenantNamespace seeds tenant ids derived from bot ids.
var tenantNamespace = uuid.MustParse("6f1c2a52-8d0e-4c4b-9a57-3f2e5b7d9c10")

// Bot is the Bot API surface used to manage a bot.
type Bot interface {
	GetMe(ctx context.Context) (telegram.User, error)
	SetWebhook(ctx context.Context, cfg telegram.WebhookConfig) error
	DeleteWebhook(ctx context.Context, dropPending bool) error
	Close() error
}

// Opener opens a Bot for a token.
type Opener func(token string) Bot

// TelegramOpener opens Bot API clients on the factory's shared pool.
func TelegramOpener(f *telegram.Factory) Opener {
	return func(token string) Bot { return f.New(token) }
}

// SecretStore persists tenant credentials. *credentials.VaultLoader
// implements it.
type SecretStore interface {
	Save(ctx context.Context, cred credentials.Credential) error
	Delete(ctx context.Context, tenantID string) error
}

// CredentialCache is the part of *credentials.Cache the service uses.
type CredentialCache interface {
	Get(ctx context.Context, tenantID string) (credentials.Credential, error)
	GetManyWithErrors(ctx context.Context, keys []string) (map[string]credentials.Credential, map[string]error)
	Put(tenantID string, cred credentials.Credential)
}

// Invalidator drops a tenant's cached credential and open session.
// *gateway.Gateway implements it.
type Invalidator interface {
	InvalidateTenant(ctx context.Context, tenantID string)
}

// Info describes one registered bot.
type Info struct {
	TenantID   string `json:"tenant_id"`
	OwnerID    int64  `json:"owner_id"`
	BotID      int64  `json:"bot_id,omitempty"`
	Username   string `json:"username,omitempty"`
	Name       string `json:"name,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
	Healthy    bool   `json:"healthy"`
	Problem    string `json:"problem,omitempty"`
}

type Service struct {
	registry registry.Registry
	secrets  SecretStore
	cache    CredentialCache
	sessions Invalidator
	open     Opener
	cfg      Config
	log      *slog.Logger
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = logger.OrDiscard(l) }
}

func NewService(reg registry.Registry, secrets SecretStore, cache CredentialCache, sessions Invalidator, open Opener, cfg Config, opts ...Option) *Service {
	if cfg.ListConcurrency <= 0 {
		cfg.ListConcurrency = DefaultListConcurrency
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	s := &Service{
		registry: reg,
		secrets:  secrets,
		cache:    cache,
		sessions: sessions,
		open:     open,
		cfg:      cfg,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TenantID returns the tenant id a bot is registered under.
func TenantID(botID int64) string {
	return uuid.NewSHA1(tenantNamespace, []byte(strconv.FormatInt(botID, 10))).String()
}

// WebhookURL returns the webhook address of a tenant.
func (s *Service) WebhookURL(tenantID string) string {
	return s.cfg.BaseURL + "/webhook/" + tenantID
}

// Onboard registers the bot behind token for ownerID. Every step that
// fails after the tenant row exists is rolled back.
func (s *Service) Onboard(ctx context.Context, ownerID int64, token string) (Info, error) {
	if ownerID <= 0 {
		return Info{}, ErrInvalidOwner
	}
	token = strings.TrimSpace(token)
	if err := telegram.ValidateToken(token); err != nil {
		return Info{}, errors.Join(ErrInvalidToken, err)
	}

	bot := s.open(token)
	defer bot.Close()

	me, err := bot.GetMe(ctx)
	switch {
	case errors.Is(err, telegram.ErrUnauthorized), errors.Is(err, telegram.ErrNotFound):
		return Info{}, errors.Join(ErrInvalidToken, err)
	case err != nil:
		return Info{}, errors.Join(ErrBotAPIUnavailable, err)
	}

	tenantID := TenantID(me.ID)
	ctx = scope.WithTenantID(ctx, tenantID)

	var name *string
	if me.Username != "" {
		name = &me.Username
	}
	if _, err := s.registry.Create(ctx, ownerID, tenantID, name); err != nil {
		if errors.Is(err, registry.ErrDuplicate) {
			return Info{}, ErrAlreadyExists
		}
		return Info{}, errors.Join(ErrStorage, err)
	}

	cred := credentials.Credential{TenantID: tenantID, Token: token, Version: 1}
	if err := s.secrets.Save(ctx, cred); err != nil {
		s.rollback(ctx, tenantID, false)
		return Info{}, errors.Join(ErrStorage, err)
	}
	s.cache.Put(tenantID, cred)

	if err := s.attachWebhook(ctx, bot, tenantID); err != nil {
		s.rollback(ctx, tenantID, true)
		return Info{}, errors.Join(ErrWebhookSetup, err)
	}

	s.log.InfoContext(ctx, "bot onboarded", logger.OwnerID(ownerID), slog.String("username", me.Username))
	return Info{
		TenantID:   tenantID,
		OwnerID:    ownerID,
		BotID:      me.ID,
		Username:   me.Username,
		Name:       me.FirstName,
		WebhookURL: s.WebhookURL(tenantID),
		Healthy:    true,
	}, nil
}

func (s *Service) attachWebhook(ctx context.Context, bot Bot, tenantID string) error {
	if err := bot.DeleteWebhook(ctx, true); err != nil {
		return err
	}
	return bot.SetWebhook(ctx, telegram.WebhookConfig{
		URL:                s.WebhookURL(tenantID),
		SecretToken:        s.cfg.WebhookSecret,
		DropPendingUpdates: true,
	})
}

func (s *Service) rollback(ctx context.Context, tenantID string, secretSaved bool) {
	ctx = scope.Detach(ctx)
	if secretSaved {
		if err := s.secrets.Delete(ctx, tenantID); err != nil {
			s.log.ErrorContext(ctx, "rollback: secret delete failed", logger.Error(err))
		}
		s.sessions.InvalidateTenant(ctx, tenantID)
	}
	if err := s.registry.Delete(ctx, tenantID); err != nil {
		s.log.ErrorContext(ctx, "rollback: tenant delete failed", logger.Error(err))
	}
}

// List returns the owner's active bots in registration order. Each bot is
// checked with getMe; a bot whose token was revoked is removed and omitted.
func (s *Service) List(ctx context.Context, ownerID int64) ([]Info, error) {
	ids, err := s.registry.ListActiveUUIDs(ctx, ownerID)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	if len(ids) == 0 {
		return []Info{}, nil
	}

	creds, failed := s.cache.GetManyWithErrors(ctx, ids)

	infos := make([]Info, len(ids))
	revoked := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ListConcurrency)
	for i, id := range ids {
		infos[i] = Info{TenantID: id, OwnerID: ownerID, WebhookURL: s.WebhookURL(id)}
		cred, ok := creds[id]
		if !ok {
			infos[i].Problem = "credential unavailable"
			if errors.Is(failed[id], credentials.ErrSecretNotFound) {
				infos[i].Problem = "secret missing"
			}
			continue
		}
		g.Go(func() error {
			revoked[i] = s.probe(gctx, cred, &infos[i])
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Info, 0, len(ids))
	for i, info := range infos {
		if revoked[i] {
			s.heal(ctx, info.TenantID)
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// probe fills info from getMe and reports whether the token is revoked.
func (s *Service) probe(ctx context.Context, cred credentials.Credential, info *Info) bool {
	bot := s.open(cred.Token)
	defer bot.Close()

	me, err := bot.GetMe(ctx)
	switch {
	case errors.Is(err, telegram.ErrUnauthorized):
		return true
	case err != nil:
		info.Problem = "bot api unavailable"
		return false
	}
	info.BotID = me.ID
	info.Username = me.Username
	info.Name = me.FirstName
	info.Healthy = true
	return false
}

// heal removes a tenant whose token the Bot API no longer accepts.
func (s *Service) heal(ctx context.Context, tenantID string) {
	ctx = scope.WithTenantID(ctx, tenantID)
	s.log.WarnContext(ctx, "bot token revoked, removing tenant")
	if err := s.purge(ctx, tenantID); err != nil {
		s.log.ErrorContext(ctx, "self-healing removal failed", logger.Error(err))
	}
}

// Remove detaches the webhook and deletes every trace of the tenant.
func (s *Service) Remove(ctx context.Context, tenantID string) error {
	ctx = scope.WithTenantID(ctx, tenantID)
	if _, err := s.find(ctx, tenantID); err != nil {
		return err
	}
	return s.remove(ctx, tenantID)
}

// RemoveOwned is Remove for a tenant that must belong to ownerID. A tenant
// of another owner is reported as ErrNotFound.
func (s *Service) RemoveOwned(ctx context.Context, ownerID int64, tenantID string) error {
	ctx = scope.WithTenantID(ctx, tenantID)
	rec, err := s.find(ctx, tenantID)
	if err != nil {
		return err
	}
	if rec.OwnerID != ownerID {
		return ErrNotFound
	}
	return s.remove(ctx, tenantID)
}

func (s *Service) find(ctx context.Context, tenantID string) (registry.Record, error) {
	rec, err := s.registry.FindByUUID(ctx, tenantID)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return rec, ErrNotFound
	case err != nil:
		return rec, errors.Join(ErrStorage, err)
	}
	return rec, nil
}

func (s *Service) remove(ctx context.Context, tenantID string) error {
	if cred, err := s.cache.Get(ctx, tenantID); err == nil {
		bot := s.open(cred.Token)
		if err := bot.DeleteWebhook(ctx, true); err != nil {
			s.log.WarnContext(ctx, "webhook delete failed", logger.Error(err))
		}
		bot.Close()
	} else {
		s.log.WarnContext(ctx, "credential unavailable, skipping webhook delete", logger.Error(err))
	}

	if err := s.purge(ctx, tenantID); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "bot removed")
	return nil
}

func (s *Service) purge(ctx context.Context, tenantID string) error {
	if err := s.secrets.Delete(ctx, tenantID); err != nil {
		return errors.Join(ErrStorage, err)
	}
	s.sessions.InvalidateTenant(ctx, tenantID)
	if err := s.registry.Delete(ctx, tenantID); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}
