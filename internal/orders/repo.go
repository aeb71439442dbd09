package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (r *repository) FindByExternalID(ctx context.Context, tenantID, externalID string) (*models.Order, error) {
	var order models.Order
	err := withLines(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) UpdateHeader(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"name":             order.Name,
			"country_code":     order.CountryCode,
			"shipping_carrier": order.ShippingCarrier,
			"revenue":          order.Revenue,
			"currency":         order.Currency,
			"processed_at":     order.ProcessedAt,
		}).Error
}

func (r *repository) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []models.OrderLine) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].OrderID = orderID
	}
	return db.Create(&lines).Error
}

// ListInRange returns orders processed in [from, to), oldest first.
func (r *repository) ListInRange(ctx context.Context, tenantID string, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := withLines(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND processed_at >= ? AND processed_at < ?", tenantID, from.UTC(), to.UTC()).
		Order("processed_at ASC").
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
