package cron

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/internal/catalog"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
	"github.com/angelmondragon/cogsdesk-backend/pkg/shopify"
)

type shopifyVariantSource interface {
	ListVariants(ctx context.Context) ([]shopify.Variant, error)
}

type variantWriter interface {
	Upsert(ctx context.Context, tenantID string, source enums.VariantSource, inputs []catalog.UpsertVariantInput) ([]catalog.VariantDTO, error)
}

// ShopifyVariantsJobParams configure the catalog sync.
type ShopifyVariantsJobParams struct {
	Logger   *logger.Logger
	Source   shopifyVariantSource
	Catalog  variantWriter
	TenantID string
}

// NewShopifyVariantsJob builds the job that refreshes variant base costs from
// inventory item costs.
func NewShopifyVariantsJob(params ShopifyVariantsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Source == nil {
		return nil, fmt.Errorf("shopify client required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.TenantID == "" {
		return nil, fmt.Errorf("tenant id required")
	}
	return &shopifyVariantsJob{
		logg:     params.Logger,
		source:   params.Source,
		catalog:  params.Catalog,
		tenantID: params.TenantID,
	}, nil
}

type shopifyVariantsJob struct {
	logg     *logger.Logger
	source   shopifyVariantSource
	catalog  variantWriter
	tenantID string
}

func (j *shopifyVariantsJob) Name() string { return ShopifyVariantsJobName }

func (j *shopifyVariantsJob) Run(ctx context.Context) error {
	ctx = j.logg.WithTenantID(ctx, j.tenantID)
	variants, err := j.source.ListVariants(ctx)
	if err != nil {
		return fmt.Errorf("shopify variant sync: %w", err)
	}

	inputs := make([]catalog.UpsertVariantInput, 0, len(variants))
	missingCost := 0
	for _, v := range variants {
		in, ok := variantInput(v)
		if !ok {
			missingCost++
			continue
		}
		inputs = append(inputs, in)
	}
	if len(inputs) > 0 {
		if _, err := j.catalog.Upsert(ctx, j.tenantID, enums.VariantSourceShopify, inputs); err != nil {
			return fmt.Errorf("shopify variant sync: %w", err)
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"variants":     len(inputs),
		"missing_cost": missingCost,
	}), "sync.variants.completed")
	return nil
}

// variantInput maps a storefront variant. Variants without a recorded cost are
// skipped so a manual base cost is never overwritten with zero.
func variantInput(v shopify.Variant) (catalog.UpsertVariantInput, bool) {
	if v.Cost == nil {
		return catalog.UpsertVariantInput{}, false
	}
	cost, err := decimal.NewFromString(*v.Cost)
	if err != nil || cost.IsNegative() {
		return catalog.UpsertVariantInput{}, false
	}
	in := catalog.UpsertVariantInput{
		VariantID: strconv.FormatInt(v.ID, 10),
		BaseCost:  cost,
	}
	if sku := strings.TrimSpace(v.SKU); sku != "" {
		in.SKU = &sku
	}
	if title := variantTitle(v); title != "" {
		in.Title = &title
	}
	return in, true
}

func variantTitle(v shopify.Variant) string {
	product := strings.TrimSpace(v.ProductTitle)
	variant := strings.TrimSpace(v.Title)
	switch {
	case variant == "" || variant == "Default Title":
		return product
	case product == "":
		return variant
	default:
		return product + " - " + variant
	}
}
