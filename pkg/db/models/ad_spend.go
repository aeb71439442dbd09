package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdSpendDaily is one ad account's spend for one calendar day (YYYY-MM-DD).
type AdSpendDaily struct {
	TenantID  string          `gorm:"column:tenant_id;size:64;primaryKey"`
	AccountID string          `gorm:"column:account_id;size:64;primaryKey"`
	Day       string          `gorm:"column:day;size:10;primaryKey"`
	Spend     decimal.Decimal `gorm:"column:spend;type:numeric(12,4);not null"`
	Currency  string          `gorm:"column:currency;size:3;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (AdSpendDaily) TableName() string { return "ad_spend_daily" }
