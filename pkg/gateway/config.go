package gateway

import "time"

type Config struct {
	// WebhookSecret is compared with the X-Telegram-Bot-Api-Secret-Token
	// header. Empty accepts every request.
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	MaxBodyBytes       int64         `env:"WEBHOOK_MAX_BODY_BYTES" envDefault:"1048576"`
	BackgroundDispatch bool          `env:"WEBHOOK_BACKGROUND" envDefault:"true"`
	DispatchTimeout    time.Duration `env:"WEBHOOK_DISPATCH_TIMEOUT" envDefault:"60s"`
	RetryAfter         time.Duration `env:"WEBHOOK_RETRY_AFTER" envDefault:"5s"`
}

const (
	DefaultMaxBodyBytes    int64 = 1 << 20
	DefaultDispatchTimeout       = 60 * time.Second
	DefaultRetryAfter            = 5 * time.Second
)
