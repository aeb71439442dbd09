package adspend

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
)

// Repository persists daily ad spend rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Upsert writes rows keyed by (tenant, account, day); later syncs overwrite spend.
func (r *Repository) Upsert(ctx context.Context, rows []models.AdSpendDaily) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "account_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"spend", "currency", "updated_at"}),
		}).
		Create(&rows).Error
}

// ListRange returns rows with fromDay <= day <= toDay. Days are YYYY-MM-DD so
// string comparison orders them chronologically.
func (r *Repository) ListRange(ctx context.Context, tenantID, fromDay, toDay string) ([]models.AdSpendDaily, error) {
	var rows []models.AdSpendDaily
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND day >= ? AND day <= ?", tenantID, fromDay, toDay).
		Order("day ASC").
		Order("account_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
