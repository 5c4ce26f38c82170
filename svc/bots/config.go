package bots

type Config struct {
	// BaseURL is the public origin the Bot API delivers webhooks to.
	BaseURL string `env:"EXTERNAL_BASE_URL" envDefault:"http://localhost:8080"`
	// WebhookSecret is sent as secret_token with setWebhook.
	WebhookSecret   string `env:"WEBHOOK_SECRET"`
	AdminKey        string `env:"ADMIN_API_KEY"`
	ListConcurrency int    `env:"BOTS_LIST_CONCURRENCY" envDefault:"8"`
}

const DefaultListConcurrency = 8
