package repositories

import (
	"context"

	"barstock-pos/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type tabRepository struct {
	db *gorm.DB
}

// NewTabRepository creates a new tab repository
func NewTabRepository(db *gorm.DB) TabRepository {
	return &tabRepository{db: db}
}

func (r *tabRepository) Create(ctx context.Context, tab *models.Tab) error {
	return r.db.WithContext(ctx).Create(tab).Error
}

func (r *tabRepository) GetByID(ctx context.Context, id string) (*models.Tab, error) {
	var tab models.Tab
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&tab).Error
	if err != nil {
		return nil, err
	}
	return &tab, nil
}

func (r *tabRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Tab, int64, error) {
	var tabs []*models.Tab
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Tab{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&tabs).Error
	return tabs, total, err
}

func (r *tabRepository) AddItem(ctx context.Context, item *models.TabItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *tabRepository) RemoveItem(ctx context.Context, tabID, itemID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND tab_id = ?", itemID, tabID).
		Delete(&models.TabItem{})
	return res.RowsAffected == 1, res.Error
}

func (r *tabRepository) Transition(ctx context.Context, id, from, to string, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.Tab{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
