package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

// Variant is a sellable SKU with its base unit cost.
type Variant struct {
	TenantID  string              `gorm:"column:tenant_id;primaryKey;size:64"`
	VariantID string              `gorm:"column:variant_id;primaryKey;size:128"`
	SKU       *string             `gorm:"column:sku"`
	Title     *string             `gorm:"column:title"`
	BaseCost  decimal.Decimal     `gorm:"column:base_cost;type:numeric(12,4);not null"`
	Source    enums.VariantSource `gorm:"column:source;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
