package repositories

import (
	"context"
	"time"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/core/domain"

	"gorm.io/gorm"
)

type stockAlertRepository struct {
	db *gorm.DB
}

// NewStockAlertRepository creates a new stock alert repository
func NewStockAlertRepository(db *gorm.DB) StockAlertRepository {
	return &stockAlertRepository{db: db}
}

func (r *stockAlertRepository) Create(ctx context.Context, alert *models.StockAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *stockAlertRepository) GetByID(ctx context.Context, id string) (*models.StockAlert, error) {
	var alert models.StockAlert
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *stockAlertRepository) GetActiveByProduct(ctx context.Context, productID string) (*models.StockAlert, error) {
	var alert models.StockAlert
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Where("status = ?", domain.AlertActive).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *stockAlertRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.StockAlert, int64, error) {
	var alerts []*models.StockAlert
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StockAlert{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&alerts).Error
	return alerts, total, err
}

func (r *stockAlertRepository) SetStatus(ctx context.Context, id, status string) error {
	updates := map[string]interface{}{"status": status}
	if status != domain.AlertActive {
		updates["resolved_at"] = time.Now()
	}
	res := r.db.WithContext(ctx).
		Model(&models.StockAlert{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
