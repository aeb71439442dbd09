package adspend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
)

// DayLayout is the calendar day format used for ad spend rows and report ranges.
const DayLayout = "2006-01-02"

// DailySpend is one account's spend for one day.
type DailySpend struct {
	AccountID string          `json:"account_id" validate:"required"`
	Day       string          `json:"day" validate:"required,datetime=2006-01-02"`
	Spend     decimal.Decimal `json:"spend"`
	Currency  string          `json:"currency" validate:"omitempty,currency"`
}

// Summary aggregates spend over a day range.
type Summary struct {
	Total decimal.Decimal            `json:"total"`
	ByDay map[string]decimal.Decimal `json:"by_day"`
}

type store interface {
	Upsert(ctx context.Context, rows []models.AdSpendDaily) error
	ListRange(ctx context.Context, tenantID, fromDay, toDay string) ([]models.AdSpendDaily, error)
}

// Service records and sums advertising spend.
type Service interface {
	Record(ctx context.Context, tenantID string, spend []DailySpend) error
	Summarize(ctx context.Context, tenantID string, from, to time.Time) (*Summary, error)
}

type service struct {
	repo store
}

func NewService(repo store) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ad spend repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tenantID string, spend []DailySpend) error {
	rows := make([]models.AdSpendDaily, 0, len(spend))
	for _, item := range spend {
		if _, err := time.Parse(DayLayout, item.Day); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid spend day").WithDetails(map[string]any{"day": item.Day})
		}
		if item.Spend.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "spend cannot be negative").WithDetails(map[string]any{"day": item.Day})
		}
		currency := enums.NormalizeCurrency(item.Currency).String()
		rows = append(rows, models.AdSpendDaily{
			TenantID:  tenantID,
			AccountID: strings.TrimSpace(item.AccountID),
			Day:       item.Day,
			Spend:     item.Spend,
			Currency:  currency,
		})
	}
	if err := s.repo.Upsert(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ad spend")
	}
	return nil
}

// Summarize sums spend for every calendar day in [from, to], inclusive.
func (s *service) Summarize(ctx context.Context, tenantID string, from, to time.Time) (*Summary, error) {
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "range end must not precede start")
	}
	rows, err := s.repo.ListRange(ctx, tenantID, from.Format(DayLayout), to.Format(DayLayout))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ad spend")
	}
	out := &Summary{Total: decimal.Zero, ByDay: map[string]decimal.Decimal{}}
	for _, row := range rows {
		out.Total = out.Total.Add(row.Spend)
		out.ByDay[row.Day] = out.ByDay[row.Day].Add(row.Spend)
	}
	return out, nil
}
