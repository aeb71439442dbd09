package pricebooks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
)

// PriceBookRepository defines persistence for price books and their children.
type PriceBookRepository interface {
	WithTx(tx *gorm.DB) PriceBookRepository
	Create(ctx context.Context, pb *models.PriceBook) error
	UpdateHeader(ctx context.Context, pb *models.PriceBook) error
	Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.PriceBook, error)
	FindBySelector(ctx context.Context, tenantID, countryCode, carrierKey string) (*models.PriceBook, error)
	List(ctx context.Context, tenantID string) ([]models.PriceBook, error)
	Delete(ctx context.Context, tenantID string, id uuid.UUID) (int64, error)
	ReplaceTiers(ctx context.Context, priceBookID uuid.UUID, tiers []models.ShippingTier) error
	ReplaceVariantOverrides(ctx context.Context, priceBookID uuid.UUID, overrides []models.VariantCostOverride) error
	ReplaceComboOverrides(ctx context.Context, priceBookID uuid.UUID, overrides []models.ComboOverride) error
	UpsertComboOverride(ctx context.Context, override *models.ComboOverride) error
	DeleteComboOverride(ctx context.Context, priceBookID uuid.UUID, comboID string) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Invalidator drops cached pricing snapshots after a tenant's data changes.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID string) error
}
