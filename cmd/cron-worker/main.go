package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cogsdesk-backend/internal/adspend"
	"github.com/angelmondragon/cogsdesk-backend/internal/catalog"
	"github.com/angelmondragon/cogsdesk-backend/internal/cron"
	"github.com/angelmondragon/cogsdesk-backend/internal/orders"
	"github.com/angelmondragon/cogsdesk-backend/internal/quotes"
	"github.com/angelmondragon/cogsdesk-backend/pkg/config"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db"
	"github.com/angelmondragon/cogsdesk-backend/pkg/env"
	"github.com/angelmondragon/cogsdesk-backend/pkg/facebook"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
	"github.com/angelmondragon/cogsdesk-backend/pkg/metrics"
	"github.com/angelmondragon/cogsdesk-backend/pkg/migrate"
	"github.com/angelmondragon/cogsdesk-backend/pkg/redis"
	"github.com/angelmondragon/cogsdesk-backend/pkg/shopify"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry, err := buildRegistry(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to register sync jobs", err)
		os.Exit(1)
	}
	if len(registry.Jobs()) == 0 {
		logg.Warn(context.Background(), "no sync jobs configured; worker will idle")
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+lockEnv(cfg.App.Env)), env.InstanceID(), cfg.Sync.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    syncMetrics,
		Interval:   cfg.Sync.Interval,
		JobTimeout: cfg.Sync.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"jobs":        len(registry.Jobs()),
		"instance":    env.InstanceID(),
	})
	logg.Info(ctx, "starting cron worker")

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Registry, error) {
	registry := cron.NewRegistry()

	if cfg.Shopify.Enabled() {
		loader, err := quotes.NewLoader(dbClient, redisClient, cfg.Pricing.SnapshotCacheTTL, logg)
		if err != nil {
			return nil, err
		}
		catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), loader, logg)
		if err != nil {
			return nil, err
		}
		orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, logg)
		if err != nil {
			return nil, err
		}
		shopifyClient, err := shopify.NewClient(cfg.Shopify, logg)
		if err != nil {
			return nil, err
		}

		variantsJob, err := cron.NewShopifyVariantsJob(cron.ShopifyVariantsJobParams{
			Logger:   logg,
			Source:   shopifyClient,
			Catalog:  catalogService,
			TenantID: cfg.Shopify.TenantID,
		})
		if err != nil {
			return nil, err
		}
		ordersJob, err := cron.NewShopifyOrdersJob(cron.ShopifyOrdersJobParams{
			Logger:       logg,
			Source:       shopifyClient,
			Orders:       orderService,
			TenantID:     cfg.Shopify.TenantID,
			LookbackDays: cfg.Sync.LookbackDays,
		})
		if err != nil {
			return nil, err
		}
		// variants first; the orders job declares the dependency
		if err := registry.Register(variantsJob); err != nil {
			return nil, err
		}
		if err := registry.Register(ordersJob); err != nil {
			return nil, err
		}
	}

	if cfg.Facebook.Enabled() {
		spendService, err := adspend.NewService(adspend.NewRepository(dbClient.DB()))
		if err != nil {
			return nil, err
		}
		facebookClient, err := facebook.NewClient(cfg.Facebook, logg, nil)
		if err != nil {
			return nil, err
		}
		spendJob, err := cron.NewAdSpendJob(cron.AdSpendJobParams{
			Logger:       logg,
			Source:       facebookClient,
			AdSpend:      spendService,
			TenantID:     cfg.Facebook.TenantID,
			LookbackDays: cfg.Sync.LookbackDays,
		})
		if err != nil {
			return nil, err
		}
		if err := registry.Register(spendJob); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func lockEnv(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
