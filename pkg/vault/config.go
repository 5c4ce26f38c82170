package vault

import "time"

// Config holds the secret store connection settings.
type Config struct {
	Addr     string        `env:"VAULT_ADDR" envDefault:"http://127.0.0.1:8200"`
	Token    string        `env:"VAULT_TOKEN"`
	RoleID   string        `env:"VAULT_ROLE_ID"`
	SecretID string        `env:"VAULT_SECRET_ID"`
	Mount    string        `env:"VAULT_KV_MOUNT" envDefault:"kv"`
	CACert   string        `env:"VAULT_CACERT"`
	CacheTTL time.Duration `env:"VAULT_CACHE_TTL" envDefault:"5s"`
	Timeout  time.Duration `env:"VAULT_TIMEOUT" envDefault:"5s"`
}

const (
	defaultCacheTTL = 5 * time.Second
	defaultTimeout  = 5 * time.Second
)
