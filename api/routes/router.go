package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cogsdesk-backend/api/controllers"
	"github.com/angelmondragon/cogsdesk-backend/api/middleware"
	"github.com/angelmondragon/cogsdesk-backend/internal/adspend"
	"github.com/angelmondragon/cogsdesk-backend/internal/catalog"
	"github.com/angelmondragon/cogsdesk-backend/internal/combos"
	"github.com/angelmondragon/cogsdesk-backend/internal/orders"
	"github.com/angelmondragon/cogsdesk-backend/internal/pricebooks"
	"github.com/angelmondragon/cogsdesk-backend/internal/quotes"
	"github.com/angelmondragon/cogsdesk-backend/internal/reports"
	"github.com/angelmondragon/cogsdesk-backend/pkg/config"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
	"github.com/angelmondragon/cogsdesk-backend/pkg/redis"
)

// Services groups the domain services mounted under /api/v1.
type Services struct {
	Catalog    catalog.Service
	PriceBooks pricebooks.Service
	Combos     combos.Service
	Quotes     quotes.Service
	Reports    reports.Service
	Orders     orders.Service
	AdSpend    adspend.Service
}

// Infra carries the shared clients the router needs beyond the services.
type Infra struct {
	DB       controllers.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	deps := map[string]controllers.Pinger{"db": infra.DB}
	var (
		idempotencyStore redis.IdempotencyStore
		windowStore      middleware.WindowStore
	)
	if infra.Redis != nil {
		deps["redis"] = infra.Redis
		idempotencyStore = infra.Redis
		windowStore = infra.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	quotePolicy := middleware.NewRateLimitPolicy("quotes", cfg.Quotes.RateLimitWindow, cfg.Quotes.RateLimit)
	adminOnly := middleware.RequirePricingEditor(logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.TenantContext(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/variants", func(r chi.Router) {
			r.Get("/", controllers.VariantList(svc.Catalog, logg))
			r.Get("/{variantId}", controllers.VariantGet(svc.Catalog, logg))
			r.With(adminOnly).Put("/", controllers.VariantUpsert(svc.Catalog, logg))
		})

		r.Route("/price-books", func(r chi.Router) {
			r.Get("/", controllers.PriceBookList(svc.PriceBooks, logg))
			r.Get("/{priceBookId}", controllers.PriceBookGet(svc.PriceBooks, logg))
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", controllers.PriceBookCreate(svc.PriceBooks, logg))
				r.Post("/import", controllers.PriceBookImport(svc.PriceBooks, logg))
				r.Delete("/{priceBookId}", controllers.PriceBookDelete(svc.PriceBooks, logg))
				r.Put("/{priceBookId}/tiers", controllers.PriceBookReplaceTiers(svc.PriceBooks, logg))
				r.Put("/{priceBookId}/variant-overrides", controllers.PriceBookReplaceVariantOverrides(svc.PriceBooks, logg))
				r.Put("/{priceBookId}/combo-overrides/{comboId}", controllers.PriceBookPutComboOverride(svc.PriceBooks, logg))
				r.Delete("/{priceBookId}/combo-overrides/{comboId}", controllers.PriceBookDeleteComboOverride(svc.PriceBooks, logg))
			})
		})

		r.Route("/combos", func(r chi.Router) {
			r.Get("/", controllers.ComboList(svc.Combos, logg))
			r.Get("/{comboId}", controllers.ComboGet(svc.Combos, logg))
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", controllers.ComboCreate(svc.Combos, logg))
				r.Put("/{comboId}", controllers.ComboUpdate(svc.Combos, logg))
				r.Post("/{comboId}/deactivate", controllers.ComboDeactivate(svc.Combos, logg))
				r.Delete("/{comboId}", controllers.ComboDelete(svc.Combos, logg))
			})
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Use(middleware.TenantRateLimit(quotePolicy, windowStore, logg))
			r.Post("/", controllers.QuoteCreate(svc.Quotes, logg))
			r.Post("/batch", controllers.QuoteBatch(svc.Quotes, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svc.Orders, logg))
			r.With(adminOnly).Put("/", controllers.OrderUpsert(svc.Orders, logg))
		})

		r.Route("/ad-spend", func(r chi.Router) {
			r.Get("/", controllers.AdSpendSummary(svc.AdSpend, logg))
			r.With(adminOnly).Put("/", controllers.AdSpendRecord(svc.AdSpend, logg))
		})

		r.Get("/reports/profitability", controllers.ReportProfitability(svc.Reports, logg))
	})

	return r
}
