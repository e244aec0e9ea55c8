package repositories

import (
	"context"

	"barstock-pos/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) visibleTo(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? OR user_id = ''", userID)
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]*models.Notification, int64, error) {
	var items []*models.Notification
	var total int64

	query := r.visibleTo(ctx, userID)
	if unreadOnly {
		query = query.Where("`read` = ?", false)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	res := r.visibleTo(ctx, userID).
		Where("id = ?", id).
		Update("read", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	// already read still counts as found
	var count int64
	err := r.visibleTo(ctx, userID).Where("id = ?", id).Count(&count).Error
	return count == 1, err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := r.visibleTo(ctx, userID).
		Where("`read` = ?", false).
		Update("read", true)
	return res.RowsAffected, res.Error
}
