package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
)

// Repository persists catalog variants.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Get loads one variant. Missing rows surface gorm.ErrRecordNotFound.
func (r *Repository) Get(ctx context.Context, tenantID, variantID string) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND variant_id = ?", tenantID, variantID).
		First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// List returns up to limit variants ordered by variant id, starting after afterID.
func (r *Repository) List(ctx context.Context, tenantID, afterID string, limit int) ([]models.Variant, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if afterID != "" {
		query = query.Where("variant_id > ?", afterID)
	}
	var variants []models.Variant
	if err := query.Order("variant_id ASC").Limit(limit).Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// ListAll returns every variant of the tenant.
func (r *Repository) ListAll(ctx context.Context, tenantID string) ([]models.Variant, error) {
	var variants []models.Variant
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("variant_id ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// Upsert inserts or refreshes variants keyed by (tenant_id, variant_id).
func (r *Repository) Upsert(ctx context.Context, variants []models.Variant) error {
	if len(variants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "variant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sku", "title", "base_cost", "source", "updated_at"}),
	}).Create(&variants).Error
}

// Delete removes a variant. Overrides that still name it become dangling and are ignored.
func (r *Repository) Delete(ctx context.Context, tenantID, variantID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND variant_id = ?", tenantID, variantID).
		Delete(&models.Variant{})
	return res.RowsAffected, res.Error
}
