package telegram

import (
	"net/http"
	"time"
)

type Config struct {
	BaseURL    string        `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
	Timeout    time.Duration `env:"TELEGRAM_TIMEOUT" envDefault:"30s"`
	MaxRetries int           `env:"TELEGRAM_MAX_RETRIES" envDefault:"2"`
	ParseMode  string        `env:"TELEGRAM_PARSE_MODE" envDefault:"HTML"`
}

// Factory creates clients that share one connection pool.
type Factory struct {
	cfg       Config
	transport *http.Transport
	http      *http.Client
	opts      []Option
}

func NewFactory(cfg Config, opts ...Option) *Factory {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 200
	transport.MaxIdleConnsPerHost = 50
	transport.IdleConnTimeout = 90 * time.Second

	return &Factory{
		cfg:       cfg,
		transport: transport,
		http:      &http.Client{Timeout: cfg.Timeout, Transport: transport},
		opts:      opts,
	}
}

// New returns a client for token on the shared pool.
func (f *Factory) New(token string) *Client {
	opts := append([]Option{
		WithBaseURL(f.cfg.BaseURL),
		WithHTTPClient(f.http),
		WithMaxRetries(f.cfg.MaxRetries),
		WithParseMode(f.cfg.ParseMode),
	}, f.opts...)
	return New(token, opts...)
}

// CloseIdleConnections drops pooled connections, typically at shutdown.
func (f *Factory) CloseIdleConnections() {
	f.transport.CloseIdleConnections()
}
