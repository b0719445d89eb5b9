package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/fusegigs/fusegigs/internal/api"
	"github.com/fusegigs/fusegigs/internal/billing"
	"github.com/fusegigs/fusegigs/internal/entitlement"
	"github.com/fusegigs/fusegigs/internal/storage"
	"github.com/fusegigs/fusegigs/pkg/config"
	"github.com/fusegigs/fusegigs/pkg/httpserver"
	"github.com/fusegigs/fusegigs/pkg/jwt"
	"github.com/fusegigs/fusegigs/pkg/logger"
	"github.com/fusegigs/fusegigs/pkg/pg"
	"github.com/fusegigs/fusegigs/pkg/redis"
)

type authConfig struct {
	SigningKey string `env:"JWT_SIGNING_KEY,required"`
}

func main() {
	ctx := context.Background()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg)
	logger.SetAsDefault(log)

	if err := run(ctx, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		pgCfg       pg.Config
		redisCfg    redis.Config
		httpCfg     httpserver.Config
		stripeCfg   billing.StripeConfig
		checkoutCfg billing.Config
		cacheCfg    entitlement.CacheConfig
		authCfg     authConfig
	)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&stripeCfg)
	config.MustLoad(&checkoutCfg)
	config.MustLoad(&cacheCfg)
	config.MustLoad(&authCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	tokens, err := jwt.NewFromString(authCfg.SigningKey)
	if err != nil {
		return err
	}

	subs := storage.NewSubscriptionRepository(pool)
	plans := storage.NewPlanRepository(pool)
	usage := storage.NewUsageRepository(pool)
	boosts := storage.NewBoostRepository(pool)

	statusCache := entitlement.NewRedisCache(redisClient, cacheCfg, log)
	entitlements := entitlement.NewService(subs, usage, boosts,
		entitlement.WithCache(statusCache),
		entitlement.WithLogger(log.With(logger.Component("entitlement"))),
	)

	provider := billing.NewStripeProvider(stripeCfg)
	checkout := billing.NewCheckoutService(provider, plans, checkoutCfg,
		log.With(logger.Component("checkout")))
	webhooks := billing.NewProcessor(provider, subs, boosts, entitlements,
		billing.WithProcessorLogger(log.With(logger.Component("webhook"))))

	handler := api.NewHandler(entitlements, checkout, webhooks,
		log.With(logger.Component("api")))
	health := httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	)
	router := api.NewRouter(handler, tokens, health)

	log.InfoContext(ctx, "starting server", slog.String("addr", httpCfg.Addr))
	return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log)).Run(ctx, router)
}
