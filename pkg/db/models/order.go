package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is a storefront order imported for profitability reporting.
type Order struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	TenantID        string          `gorm:"column:tenant_id;size:64;not null;uniqueIndex:idx_orders_tenant_external"`
	ExternalID      string          `gorm:"column:external_id;size:64;not null;uniqueIndex:idx_orders_tenant_external"`
	Name            string          `gorm:"column:name"`
	CountryCode     string          `gorm:"column:country_code;size:2"`
	ShippingCarrier string          `gorm:"column:shipping_carrier"`
	Revenue         decimal.Decimal `gorm:"column:revenue;type:numeric(12,4);not null"`
	Currency        string          `gorm:"column:currency;size:3;not null"`
	ProcessedAt     time.Time       `gorm:"column:processed_at;not null;index"`
	Lines           []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLine is a single purchased variant on an imported order.
type OrderLine struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID string    `gorm:"column:variant_id;size:128;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
}
