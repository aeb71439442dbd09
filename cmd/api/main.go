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
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/cogsdesk-backend/api/routes"
	"github.com/angelmondragon/cogsdesk-backend/internal/adspend"
	"github.com/angelmondragon/cogsdesk-backend/internal/catalog"
	"github.com/angelmondragon/cogsdesk-backend/internal/combos"
	"github.com/angelmondragon/cogsdesk-backend/internal/orders"
	"github.com/angelmondragon/cogsdesk-backend/internal/pricebooks"
	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	"github.com/angelmondragon/cogsdesk-backend/internal/quotes"
	"github.com/angelmondragon/cogsdesk-backend/internal/reports"
	"github.com/angelmondragon/cogsdesk-backend/pkg/config"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db"
	"github.com/angelmondragon/cogsdesk-backend/pkg/env"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
	"github.com/angelmondragon/cogsdesk-backend/pkg/metrics"
	"github.com/angelmondragon/cogsdesk-backend/pkg/migrate"
	"github.com/angelmondragon/cogsdesk-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := buildServices(cfg, logg, dbClient, redisClient, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": env.InstanceID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Infra{
			DB:       dbClient,
			Redis:    redisClient,
			Gatherer: registry,
		}, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg prometheus.Registerer) (routes.Services, error) {
	var svc routes.Services

	// the loader doubles as the snapshot invalidator for every writer
	loader, err := quotes.NewLoader(dbClient, redisClient, cfg.Pricing.SnapshotCacheTTL, logg)
	if err != nil {
		return svc, err
	}

	if svc.Catalog, err = catalog.NewService(catalog.NewRepository(dbClient.DB()), loader, logg); err != nil {
		return svc, err
	}
	if svc.PriceBooks, err = pricebooks.NewService(pricebooks.NewRepository(dbClient.DB()), dbClient, loader, logg); err != nil {
		return svc, err
	}
	if svc.Combos, err = combos.NewService(combos.NewRepository(dbClient.DB()), dbClient, loader, logg); err != nil {
		return svc, err
	}

	var defaultSelector pricing.Selector
	if cfg.Pricing.HasDefaultSelector() {
		defaultSelector = pricing.Selector{
			CountryCode:     pricing.NormalizeCountry(cfg.Pricing.DefaultCountry),
			ShippingCarrier: cfg.Pricing.DefaultCarrier,
		}
	}
	engine := pricing.NewEngine(pricing.Options{StrictShipping: cfg.Pricing.StrictShipping})
	if svc.Quotes, err = quotes.NewService(loader, engine, quotes.Options{
		DefaultSelector: defaultSelector,
		Workers:         cfg.Quotes.BatchWorkers,
		MaxBatchSize:    cfg.Quotes.MaxBatchSize,
	}, metrics.NewQuoteMetrics(reg), logg); err != nil {
		return svc, err
	}

	if svc.Orders, err = orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, logg); err != nil {
		return svc, err
	}
	if svc.AdSpend, err = adspend.NewService(adspend.NewRepository(dbClient.DB())); err != nil {
		return svc, err
	}
	if svc.Reports, err = reports.NewService(svc.Orders, svc.AdSpend, svc.Quotes, logg); err != nil {
		return svc, err
	}

	return svc, nil
}
