package cron

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/orders"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
	"github.com/angelmondragon/cogsdesk-backend/pkg/shopify"
)

const defaultLookbackDays = 7

type shopifyOrderSource interface {
	ListOrders(ctx context.Context, since time.Time, fn func([]shopify.Order) error) error
}

type orderWriter interface {
	Upsert(ctx context.Context, tenantID string, inputs []orders.OrderInput) (*orders.UpsertResult, error)
}

// ShopifyOrdersJobParams configure the storefront order sync.
type ShopifyOrdersJobParams struct {
	Logger       *logger.Logger
	Source       shopifyOrderSource
	Orders       orderWriter
	TenantID     string
	LookbackDays int
}

// NewShopifyOrdersJob builds the job that imports recently updated orders.
func NewShopifyOrdersJob(params ShopifyOrdersJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Source == nil {
		return nil, fmt.Errorf("shopify client required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.TenantID == "" {
		return nil, fmt.Errorf("tenant id required")
	}
	lookback := params.LookbackDays
	if lookback <= 0 {
		lookback = defaultLookbackDays
	}
	return &shopifyOrdersJob{
		logg:     params.Logger,
		source:   params.Source,
		orders:   params.Orders,
		tenantID: params.TenantID,
		lookback: lookback,
		now:      time.Now,
	}, nil
}

type shopifyOrdersJob struct {
	logg     *logger.Logger
	source   shopifyOrderSource
	orders   orderWriter
	tenantID string
	lookback int
	now      func() time.Time
}

func (j *shopifyOrdersJob) Name() string { return ShopifyOrdersJobName }

// DependsOn keeps orders from landing before the variants they reference.
func (j *shopifyOrdersJob) DependsOn() []string { return []string{ShopifyVariantsJobName} }

func (j *shopifyOrdersJob) Run(ctx context.Context) error {
	since := j.now().UTC().AddDate(0, 0, -j.lookback)
	ctx = j.logg.WithTenantID(ctx, j.tenantID)
	var created, updated, skipped int

	err := j.source.ListOrders(ctx, since, func(page []shopify.Order) error {
		inputs := make([]orders.OrderInput, 0, len(page))
		for _, o := range page {
			in, ok := orderInput(o)
			if !ok {
				skipped++
				continue
			}
			inputs = append(inputs, in)
		}
		if len(inputs) == 0 {
			return nil
		}
		res, err := j.orders.Upsert(ctx, j.tenantID, inputs)
		if err != nil {
			return err
		}
		created += res.Created
		updated += res.Updated
		j.logg.Info(j.logg.WithField(ctx, "orders", len(inputs)), "sync.orders.page")
		return nil
	})
	if err != nil {
		return fmt.Errorf("shopify order sync: %w", err)
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"created": created,
		"updated": updated,
		"skipped": skipped,
	}), "sync.orders.completed")
	return nil
}

// orderInput maps a storefront order. Cancelled orders and line items without
// a variant (custom items, tips) are dropped.
func orderInput(o shopify.Order) (orders.OrderInput, bool) {
	if o.CancelledAt != nil {
		return orders.OrderInput{}, false
	}
	in := orders.OrderInput{
		ExternalID:      strconv.FormatInt(o.ID, 10),
		Name:            o.Name,
		CountryCode:     o.CountryCode(),
		ShippingCarrier: o.Carrier(),
		Currency:        o.Currency,
		ProcessedAt:     o.ProcessedAt,
	}
	if revenue, err := decimal.NewFromString(o.TotalPrice); err == nil {
		in.Revenue = revenue
	}
	for _, item := range o.LineItems {
		if item.VariantID == nil || item.Quantity < 1 {
			continue
		}
		in.Lines = append(in.Lines, orders.LineInput{
			VariantID: strconv.FormatInt(*item.VariantID, 10),
			Quantity:  item.Quantity,
		})
	}
	return in, len(in.Lines) > 0
}
