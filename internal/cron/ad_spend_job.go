package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/cogsdesk-backend/internal/adspend"
	"github.com/angelmondragon/cogsdesk-backend/pkg/facebook"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

type spendSource interface {
	DailySpend(ctx context.Context, since, until time.Time) ([]facebook.DailySpend, error)
}

type spendWriter interface {
	Record(ctx context.Context, tenantID string, spend []adspend.DailySpend) error
}

// AdSpendJobParams configure the ad spend sync.
type AdSpendJobParams struct {
	Logger       *logger.Logger
	Source       spendSource
	AdSpend      spendWriter
	TenantID     string
	LookbackDays int
}

// NewAdSpendJob builds the job that re-reads recent daily spend. Spend for
// recent days keeps settling, so the whole lookback window is rewritten.
func NewAdSpendJob(params AdSpendJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Source == nil {
		return nil, fmt.Errorf("facebook client required")
	}
	if params.AdSpend == nil {
		return nil, fmt.Errorf("ad spend service required")
	}
	if params.TenantID == "" {
		return nil, fmt.Errorf("tenant id required")
	}
	lookback := params.LookbackDays
	if lookback <= 0 {
		lookback = defaultLookbackDays
	}
	return &adSpendJob{
		logg:     params.Logger,
		source:   params.Source,
		spend:    params.AdSpend,
		tenantID: params.TenantID,
		lookback: lookback,
		now:      time.Now,
	}, nil
}

type adSpendJob struct {
	logg     *logger.Logger
	source   spendSource
	spend    spendWriter
	tenantID string
	lookback int
	now      func() time.Time
}

func (j *adSpendJob) Name() string { return AdSpendJobName }

func (j *adSpendJob) Run(ctx context.Context) error {
	until := j.now().UTC()
	since := until.AddDate(0, 0, -j.lookback)
	ctx = j.logg.WithTenantID(ctx, j.tenantID)

	days, err := j.source.DailySpend(ctx, since, until)
	if err != nil {
		return fmt.Errorf("ad spend sync: %w", err)
	}
	rows := make([]adspend.DailySpend, 0, len(days))
	for _, day := range days {
		rows = append(rows, adspend.DailySpend{
			AccountID: day.AccountID,
			Day:       day.Day,
			Spend:     day.Spend,
			Currency:  day.Currency,
		})
	}
	if err := j.spend.Record(ctx, j.tenantID, rows); err != nil {
		return fmt.Errorf("ad spend sync: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "days", len(rows)), "sync.ad_spend.completed")
	return nil
}
