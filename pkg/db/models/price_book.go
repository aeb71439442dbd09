package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceBook scopes tier and override pricing to one destination country and carrier.
// CarrierKey is the case-folded carrier used for the uniqueness guarantee.
type PriceBook struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	TenantID         string                `gorm:"column:tenant_id;size:64;not null;uniqueIndex:idx_price_books_tenant_country_carrier"`
	CountryCode      string                `gorm:"column:country_code;size:2;not null;uniqueIndex:idx_price_books_tenant_country_carrier"`
	ShippingCarrier  string                `gorm:"column:shipping_carrier;not null"`
	CarrierKey       string                `gorm:"column:carrier_key;not null;uniqueIndex:idx_price_books_tenant_country_carrier"`
	Currency         string                `gorm:"column:currency;size:3;not null"`
	Tiers            []ShippingTier        `gorm:"foreignKey:PriceBookID;constraint:OnDelete:CASCADE"`
	VariantOverrides []VariantCostOverride `gorm:"foreignKey:PriceBookID;constraint:OnDelete:CASCADE"`
	ComboOverrides   []ComboOverride       `gorm:"foreignKey:PriceBookID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not.
func (p *PriceBook) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ShippingTier charges ShippingCost for item counts in [MinItems, MaxItems].
type ShippingTier struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	PriceBookID  uuid.UUID       `gorm:"column:price_book_id;type:uuid;not null;index"`
	MinItems     int             `gorm:"column:min_items;not null"`
	MaxItems     int             `gorm:"column:max_items;not null"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,4);not null"`
}

// VariantCostOverride replaces a variant's base cost inside one price book.
type VariantCostOverride struct {
	PriceBookID  uuid.UUID       `gorm:"column:price_book_id;type:uuid;primaryKey"`
	VariantID    string          `gorm:"column:variant_id;size:128;primaryKey"`
	OverrideCost decimal.Decimal `gorm:"column:override_cost;type:numeric(12,4);not null"`
}

// ComboOverride replaces the computed product and/or shipping cost of a combo.
// ComboID is not a foreign key; a dangling id simply never matches.
type ComboOverride struct {
	PriceBookID          uuid.UUID        `gorm:"column:price_book_id;type:uuid;primaryKey"`
	ComboID              string           `gorm:"column:combo_id;size:128;primaryKey"`
	OverrideProductCost  *decimal.Decimal `gorm:"column:override_product_cost;type:numeric(12,4)"`
	OverrideShippingCost *decimal.Decimal `gorm:"column:override_shipping_cost;type:numeric(12,4)"`
	UpdatedAt            time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
