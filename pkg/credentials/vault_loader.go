package credentials

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/dmitrymomot/tenantbot/pkg/vault"
)

// SecretStore is the part of *vault.Client the loader uses.
type SecretStore interface {
	Read(ctx context.Context, path string) (map[string]any, error)
	Write(ctx context.Context, path string, data map[string]any) error
	Delete(ctx context.Context, path string) error
	Forget(path string)
}

// secretSchema is the stored layout of a tenant secret.
type secretSchema struct {
	BotToken      string  `mapstructure:"bot_token"`
	Version       int     `mapstructure:"version"`
	WebhookSecret *string `mapstructure:"webhook_secret"`
}

// VaultLoader reads tenant credentials stored at <prefix>/<tenant id>.
type VaultLoader struct {
	store  SecretStore
	prefix string
}

func NewVaultLoader(store SecretStore, prefix string) *VaultLoader {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultSecretPrefix
	}
	return &VaultLoader{store: store, prefix: prefix}
}

// Path returns the secret path of tenantID.
func (l *VaultLoader) Path(tenantID string) string {
	return path.Join(l.prefix, tenantID)
}

// Load implements Loader. A missing secret is ErrSecretNotFound and a
// secret without bot_token is ErrInvalidSecret.
func (l *VaultLoader) Load(ctx context.Context, tenantID string) (Credential, error) {
	if tenantID == "" {
		return Credential{}, ErrEmptyTenantID
	}
	data, err := l.store.Read(ctx, l.Path(tenantID))
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) {
			return Credential{}, errors.Join(ErrSecretNotFound, err)
		}
		return Credential{}, err
	}
	return decodeSecret(tenantID, data)
}

// Forget implements Forgetter by dropping the store's local copy.
func (l *VaultLoader) Forget(tenantID string) {
	l.store.Forget(l.Path(tenantID))
}

// Save writes cred in the stored layout.
func (l *VaultLoader) Save(ctx context.Context, cred Credential) error {
	if cred.TenantID == "" {
		return ErrEmptyTenantID
	}
	if strings.TrimSpace(cred.Token) == "" {
		return fmt.Errorf("%w: empty bot_token", ErrInvalidSecret)
	}
	version := cred.Version
	if version <= 0 {
		version = 1
	}
	data := map[string]any{
		"bot_token": cred.Token,
		"version":   version,
	}
	if cred.ExtraSecret != nil {
		data["webhook_secret"] = *cred.ExtraSecret
	}
	return l.store.Write(ctx, l.Path(cred.TenantID), data)
}

// Delete removes the tenant secret.
func (l *VaultLoader) Delete(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrEmptyTenantID
	}
	return l.store.Delete(ctx, l.Path(tenantID))
}

func decodeSecret(tenantID string, data map[string]any) (Credential, error) {
	var s secretSchema
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return Credential{}, errors.Join(ErrInvalidSecret, err)
	}
	if err := dec.Decode(data); err != nil {
		return Credential{}, errors.Join(ErrInvalidSecret, err)
	}

	token := strings.TrimSpace(s.BotToken)
	if token == "" {
		return Credential{}, fmt.Errorf("%w: missing bot_token", ErrInvalidSecret)
	}
	if s.Version <= 0 {
		s.Version = 1
	}
	return Credential{
		TenantID:    tenantID,
		Token:       token,
		Version:     s.Version,
		ExtraSecret: s.WebhookSecret,
	}, nil
}
