package combos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
)

// ComboRepository defines persistence for combos and their items.
type ComboRepository interface {
	WithTx(tx *gorm.DB) ComboRepository
	Create(ctx context.Context, combo *models.Combo) error
	Get(ctx context.Context, tenantID, comboID string) (*models.Combo, error)
	List(ctx context.Context, tenantID string, activeOnly bool) ([]models.Combo, error)
	UpdateHeader(ctx context.Context, combo *models.Combo) error
	ReplaceItems(ctx context.Context, comboRowID uuid.UUID, items []models.ComboItem) error
	SetActive(ctx context.Context, tenantID, comboID string, active bool) (int64, error)
	Delete(ctx context.Context, tenantID, comboID string) (int64, error)
}

// Repository is the gorm-backed ComboRepository.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ComboRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") })
}

func (r *Repository) Create(ctx context.Context, combo *models.Combo) error {
	return r.db.WithContext(ctx).Create(combo).Error
}

func (r *Repository) Get(ctx context.Context, tenantID, comboID string) (*models.Combo, error) {
	var combo models.Combo
	if err := withItems(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND combo_id = ?", tenantID, comboID).
		First(&combo).Error; err != nil {
		return nil, err
	}
	return &combo, nil
}

func (r *Repository) List(ctx context.Context, tenantID string, activeOnly bool) ([]models.Combo, error) {
	query := withItems(r.db.WithContext(ctx)).Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var combos []models.Combo
	if err := query.Order("combo_id ASC").Find(&combos).Error; err != nil {
		return nil, err
	}
	return combos, nil
}

// UpdateHeader saves every scalar column, including false/zero values.
func (r *Repository) UpdateHeader(ctx context.Context, combo *models.Combo) error {
	return r.db.WithContext(ctx).
		Model(&models.Combo{}).
		Where("id = ?", combo.ID).
		Updates(map[string]any{
			"name":             combo.Name,
			"discount_type":    combo.DiscountType,
			"discount_value":   combo.DiscountValue,
			"trigger_quantity": combo.TriggerQuantity,
			"is_active":        combo.IsActive,
		}).Error
}

func (r *Repository) ReplaceItems(ctx context.Context, comboRowID uuid.UUID, items []models.ComboItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("combo_row_id = ?", comboRowID).Delete(&models.ComboItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].ComboRowID = comboRowID
	}
	return tx.Create(&items).Error
}

func (r *Repository) SetActive(ctx context.Context, tenantID, comboID string, active bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Combo{}).
		Where("tenant_id = ? AND combo_id = ?", tenantID, comboID).
		Update("is_active", active)
	return res.RowsAffected, res.Error
}

// Delete removes the combo and its items. Combo overrides naming it are left
// in place and simply stop matching.
func (r *Repository) Delete(ctx context.Context, tenantID, comboID string) (int64, error) {
	tx := r.db.WithContext(ctx)
	var combo models.Combo
	if err := tx.Where("tenant_id = ? AND combo_id = ?", tenantID, comboID).First(&combo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if err := tx.Where("combo_row_id = ?", combo.ID).Delete(&models.ComboItem{}).Error; err != nil {
		return 0, err
	}
	res := tx.Where("id = ?", combo.ID).Delete(&models.Combo{})
	return res.RowsAffected, res.Error
}
