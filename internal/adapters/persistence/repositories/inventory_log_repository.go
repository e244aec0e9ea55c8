package repositories

import (
	"context"

	"barstock-pos/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type inventoryChangeLogRepository struct {
	db *gorm.DB
}

// NewInventoryChangeLogRepository creates the append-only audit repository
func NewInventoryChangeLogRepository(db *gorm.DB) InventoryChangeLogRepository {
	return &inventoryChangeLogRepository{db: db}
}

func (r *inventoryChangeLogRepository) Create(ctx context.Context, entry *models.InventoryChangeLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *inventoryChangeLogRepository) List(ctx context.Context, filter AuditFilter, offset, limit int) ([]*models.InventoryChangeLog, int64, error) {
	var entries []*models.InventoryChangeLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.InventoryChangeLog{})
	if filter.ProductID != "" {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("timestamp DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
