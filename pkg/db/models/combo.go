package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
)

// Combo is a named bundle of variants sold together.
type Combo struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	TenantID        string              `gorm:"column:tenant_id;size:64;not null;uniqueIndex:idx_combos_tenant_combo"`
	ComboID         string              `gorm:"column:combo_id;size:128;not null;uniqueIndex:idx_combos_tenant_combo"`
	Name            string              `gorm:"column:name;not null"`
	DiscountType    *enums.DiscountType `gorm:"column:discount_type"`
	DiscountValue   decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,4);not null"`
	TriggerQuantity int                 `gorm:"column:trigger_quantity;not null"`
	IsActive        bool                `gorm:"column:is_active;not null"`
	Items           []ComboItem         `gorm:"foreignKey:ComboRowID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not.
func (c *Combo) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ComboItem is one ordered (variant, qty) entry of a combo.
type ComboItem struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ComboRowID uuid.UUID `gorm:"column:combo_row_id;type:uuid;not null;index"`
	Position   int       `gorm:"column:position;not null"`
	VariantID  string    `gorm:"column:variant_id;size:128;not null"`
	Qty        int       `gorm:"column:qty;not null"`
}
