package pricebooks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
)

// Repository is the gorm-backed PriceBookRepository.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) PriceBookRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tiers", func(tx *gorm.DB) *gorm.DB { return tx.Order("min_items ASC") }).
		Preload("VariantOverrides", func(tx *gorm.DB) *gorm.DB { return tx.Order("variant_id ASC") }).
		Preload("ComboOverrides", func(tx *gorm.DB) *gorm.DB { return tx.Order("combo_id ASC") })
}

// Create inserts the price book together with its tiers and overrides.
func (r *Repository) Create(ctx context.Context, pb *models.PriceBook) error {
	return r.db.WithContext(ctx).Create(pb).Error
}

// UpdateHeader saves the scalar columns only.
func (r *Repository) UpdateHeader(ctx context.Context, pb *models.PriceBook) error {
	return r.db.WithContext(ctx).
		Model(&models.PriceBook{}).
		Where("id = ?", pb.ID).
		Updates(map[string]any{
			"shipping_carrier": pb.ShippingCarrier,
			"currency":         pb.Currency,
		}).Error
}

// Get loads a price book with its children.
func (r *Repository) Get(ctx context.Context, tenantID string, id uuid.UUID) (*models.PriceBook, error) {
	var pb models.PriceBook
	if err := withChildren(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&pb).Error; err != nil {
		return nil, err
	}
	return &pb, nil
}

// FindBySelector loads the price book for a (country, carrier key) pair.
func (r *Repository) FindBySelector(ctx context.Context, tenantID, countryCode, carrierKey string) (*models.PriceBook, error) {
	var pb models.PriceBook
	if err := withChildren(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND country_code = ? AND carrier_key = ?", tenantID, countryCode, carrierKey).
		First(&pb).Error; err != nil {
		return nil, err
	}
	return &pb, nil
}

// List returns every price book of the tenant with children.
func (r *Repository) List(ctx context.Context, tenantID string) ([]models.PriceBook, error) {
	var books []models.PriceBook
	if err := withChildren(r.db.WithContext(ctx)).
		Where("tenant_id = ?", tenantID).
		Order("country_code ASC, carrier_key ASC").
		Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// Delete removes the price book and its children.
func (r *Repository) Delete(ctx context.Context, tenantID string, id uuid.UUID) (int64, error) {
	tx := r.db.WithContext(ctx)
	for _, child := range []any{&models.ShippingTier{}, &models.VariantCostOverride{}, &models.ComboOverride{}} {
		if err := tx.Where("price_book_id = ?", id).Delete(child).Error; err != nil {
			return 0, err
		}
	}
	res := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.PriceBook{})
	return res.RowsAffected, res.Error
}

// ReplaceTiers swaps the tier list of a price book.
func (r *Repository) ReplaceTiers(ctx context.Context, priceBookID uuid.UUID, tiers []models.ShippingTier) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("price_book_id = ?", priceBookID).Delete(&models.ShippingTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		tiers[i].ID = 0
		tiers[i].PriceBookID = priceBookID
	}
	return tx.Create(&tiers).Error
}

// ReplaceVariantOverrides swaps the variant override map of a price book.
func (r *Repository) ReplaceVariantOverrides(ctx context.Context, priceBookID uuid.UUID, overrides []models.VariantCostOverride) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("price_book_id = ?", priceBookID).Delete(&models.VariantCostOverride{}).Error; err != nil {
		return err
	}
	if len(overrides) == 0 {
		return nil
	}
	for i := range overrides {
		overrides[i].PriceBookID = priceBookID
	}
	return tx.Create(&overrides).Error
}

// ReplaceComboOverrides swaps the combo override map of a price book.
func (r *Repository) ReplaceComboOverrides(ctx context.Context, priceBookID uuid.UUID, overrides []models.ComboOverride) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("price_book_id = ?", priceBookID).Delete(&models.ComboOverride{}).Error; err != nil {
		return err
	}
	if len(overrides) == 0 {
		return nil
	}
	for i := range overrides {
		overrides[i].PriceBookID = priceBookID
	}
	return tx.Create(&overrides).Error
}

// UpsertComboOverride writes one combo override, replacing both values.
func (r *Repository) UpsertComboOverride(ctx context.Context, override *models.ComboOverride) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "price_book_id"}, {Name: "combo_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"override_product_cost", "override_shipping_cost", "updated_at"}),
	}).Create(override).Error
}

// DeleteComboOverride removes one combo override.
func (r *Repository) DeleteComboOverride(ctx context.Context, priceBookID uuid.UUID, comboID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("price_book_id = ? AND combo_id = ?", priceBookID, comboID).
		Delete(&models.ComboOverride{})
	return res.RowsAffected, res.Error
}
