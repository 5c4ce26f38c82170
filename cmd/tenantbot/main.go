package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tenantbot/pkg/config"
	"github.com/dmitrymomot/tenantbot/pkg/credentials"
	"github.com/dmitrymomot/tenantbot/pkg/gateway"
	"github.com/dmitrymomot/tenantbot/pkg/httpserver"
	"github.com/dmitrymomot/tenantbot/pkg/logger"
	"github.com/dmitrymomot/tenantbot/pkg/pg"
	"github.com/dmitrymomot/tenantbot/pkg/redis"
	"github.com/dmitrymomot/tenantbot/pkg/registry"
	"github.com/dmitrymomot/tenantbot/pkg/scope"
	"github.com/dmitrymomot/tenantbot/pkg/telegram"
	"github.com/dmitrymomot/tenantbot/pkg/updates"
	"github.com/dmitrymomot/tenantbot/pkg/vault"
	"github.com/dmitrymomot/tenantbot/svc/bootstrap"
	"github.com/dmitrymomot/tenantbot/svc/bots"
)

const (
	serviceName   = "tenantbot"
	mainTenantID  = "main"
	readyTimeout  = 2 * time.Second
	setupDeadline = 30 * time.Second
)

type appConfig struct {
	LogLevel     string `env:"LOG_LEVEL" envDefault:"INFO"`
	MainBotToken string `env:"MAIN_BOT_TOKEN"`
}

type configs struct {
	app         appConfig
	boot        bootstrap.Config
	vault       vault.Config
	pg          pg.Config
	redis       redis.Config
	credentials credentials.Config
	gateway     gateway.Config
	telegram    telegram.Config
	bots        bots.Config
	admins      updates.Config
	http        httpserver.Config
}

func loadConfigs() (configs, error) {
	var c configs
	return c, errors.Join(
		config.Load(&c.app),
		config.Load(&c.boot),
		config.Load(&c.vault),
		config.Load(&c.pg),
		config.Load(&c.redis),
		config.Load(&c.credentials),
		config.Load(&c.gateway),
		config.Load(&c.telegram),
		config.Load(&c.bots),
		config.Load(&c.admins),
		config.Load(&c.http),
	)
}

func main() {
	cfg, err := loadConfigs()
	if err != nil {
		slog.Error("config_load_failed", logger.Error(err))
		os.Exit(1)
	}

	log := logger.New(
		logger.WithEnvironment(cfg.boot.Env, serviceName),
		logger.WithLevelName(cfg.app.LogLevel),
		logger.WithContextExtractors(scope.TenantExtractor(), scope.RequestExtractor(), scope.UserExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("service_stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg configs, log *slog.Logger) error {
	setupCtx, cancel := context.WithTimeout(ctx, setupDeadline)
	defer cancel()

	secretStore, err := vault.New(cfg.vault, vault.WithLogger(log))
	if err != nil {
		return err
	}
	if err := secretStore.Login(setupCtx); err != nil {
		return err
	}

	secrets, err := bootstrap.Load(setupCtx, secretStore, cfg.boot, bootstrap.Secrets{
		MainBotToken:  cfg.app.MainBotToken,
		Admins:        updates.NewAdminSet(cfg.admins.AdminIDs...),
		WebhookSecret: cfg.gateway.WebhookSecret,
		DatabaseDSN:   cfg.pg.ConnectionString,
		RedisDSN:      cfg.redis.ConnectionURL,
	}, log)
	if err != nil {
		return err
	}

	cfg.pg.ConnectionString = secrets.DatabaseDSN
	pool, err := pg.Connect(setupCtx, cfg.pg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(setupCtx, pool, cfg.pg, registry.Migrations, registry.MigrationsDir, log); err != nil {
		return err
	}

	checks := []httpserver.Check{
		{Name: "postgres", Fn: pg.Healthcheck(pool)},
		{Name: "vault", Fn: secretStore.Healthcheck},
	}

	var tenants registry.Registry = registry.NewPostgres(pool)
	if cfg.boot.UseRedis && secrets.RedisDSN != "" {
		cfg.redis.ConnectionURL = secrets.RedisDSN
		client, err := redis.Connect(setupCtx, cfg.redis)
		if err != nil {
			return err
		}
		defer closeRedis(client, log)
		tenants = registry.NewCached(tenants, client, registry.WithLogger(log))
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	}

	loader := credentials.NewVaultLoader(secretStore, cfg.credentials.SecretPrefix)
	creds := credentials.NewCache(loader, cfg.credentials, credentials.WithLogger(log))
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	creds.StartSweeper(sweepCtx, cfg.credentials.SweepInterval)

	factory := telegram.NewFactory(cfg.telegram)
	gw := gateway.New(tenants, creds, gateway.TelegramConnector(factory),
		gateway.WithLogger(log),
		gateway.WithWebhookSecret(secrets.WebhookSecret),
	)

	cfg.bots.WebhookSecret = secrets.WebhookSecret
	botService := bots.NewService(tenants, loader, creds, gw, bots.TelegramOpener(factory), cfg.bots, bots.WithLogger(log))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer, scope.RequestIDMiddleware)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, readyTimeout, checks...))
	r.Mount("/api", bots.Router(botService, cfg.bots.AdminKey, log))

	var mainBot *telegram.Client
	if secrets.MainBotToken != "" {
		mainBot = factory.New(secrets.MainBotToken)
		session := gateway.NewSession(credentials.Credential{TenantID: mainTenantID, Token: secrets.MainBotToken, Version: 1}, mainBot)
		r.Method(http.MethodPost, "/webhook/"+mainTenantID, gateway.NewHandler(gw,
			mainDispatcher(botService, gw, secrets.Admins, log),
			gateway.WithHandlerConfig(cfg.gateway),
			gateway.WithHandlerLogger(log),
			gateway.WithFixedSession(session),
		))
	} else {
		log.Warn("main_bot_disabled")
	}
	r.Method(http.MethodPost, "/webhook/{tenantID}", gateway.NewHandler(gw,
		tenantDispatcher(secrets.Admins, log),
		gateway.WithHandlerConfig(cfg.gateway),
		gateway.WithHandlerLogger(log),
	))

	server := httpserver.NewFromConfig(cfg.http,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(log *slog.Logger) {
			if mainBot != nil {
				go setMainWebhook(ctx, mainBot, cfg.bots.BaseURL, secrets.WebhookSecret, log)
			}
		}),
		httpserver.WithStopHook(func(ctx context.Context, log *slog.Logger) error {
			err := gw.Shutdown(ctx)
			if mainBot != nil {
				err = errors.Join(err, mainBot.Close())
			}
			factory.CloseIdleConnections()
			log.InfoContext(ctx, "secret_copies_dropped", logger.Count(secretStore.ClearCache("")))
			return err
		}),
	)
	return server.Run(ctx, r)
}

// setMainWebhook points the management bot at this instance.
func setMainWebhook(ctx context.Context, bot *telegram.Client, baseURL, secret string, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, setupDeadline)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + "/webhook/" + mainTenantID
	err := bot.SetWebhook(ctx, telegram.WebhookConfig{
		URL:                url,
		SecretToken:        secret,
		DropPendingUpdates: true,
	})
	if err != nil {
		log.ErrorContext(ctx, "main_webhook_setup_failed", logger.Error(err))
		return
	}
	log.InfoContext(ctx, "main_webhook_set", slog.String("url", url))
}

func closeRedis(client *goredis.Client, log *slog.Logger) {
	if err := client.Close(); err != nil {
		log.Warn("redis_close_failed", logger.Error(err))
	}
}
