package credentials

import "time"

type Config struct {
	TTL            time.Duration `env:"CREDENTIALS_TTL" envDefault:"60s"`
	Capacity       int           `env:"CREDENTIALS_CAPACITY" envDefault:"1000"`
	MaxConcurrency int           `env:"CREDENTIALS_MAX_CONCURRENCY" envDefault:"10"`
	// FetchTimeout bounds admission wait plus the upstream read of one flight.
	FetchTimeout  time.Duration `env:"CREDENTIALS_FETCH_TIMEOUT" envDefault:"15s"`
	SweepInterval time.Duration `env:"CREDENTIALS_SWEEP_INTERVAL" envDefault:"5m"`
	SecretPrefix  string        `env:"CREDENTIALS_SECRET_PREFIX" envDefault:"tgbot/tenants"`
}

const (
	DefaultTTL            = 60 * time.Second
	DefaultMaxConcurrency = 10
	DefaultFetchTimeout   = 15 * time.Second
	DefaultSecretPrefix   = "tgbot/tenants"
)
