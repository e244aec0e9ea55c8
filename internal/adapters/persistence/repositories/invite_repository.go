package repositories

import (
	"context"
	"time"

	"barstock-pos/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type inviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *inviteRepository) Get(ctx context.Context, code string) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// Consume is a single conditional update, so two redeemers cannot both win
func (r *inviteRepository) Consume(ctx context.Context, code, userID string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("code = ?", code).
		Where("used = ?", false).
		Where("expires_at > ?", now).
		Updates(map[string]interface{}{
			"used":    true,
			"used_by": userID,
			"used_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *inviteRepository) Release(ctx context.Context, code, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invite{}).
		Where("code = ?", code).
		Where("used = ?", true).
		Where("used_by = ?", userID).
		Updates(map[string]interface{}{
			"used":    false,
			"used_by": nil,
			"used_at": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *inviteRepository) List(ctx context.Context, offset, limit int) ([]*models.Invite, int64, error) {
	var invites []*models.Invite
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Invite{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&invites).Error
	return invites, total, err
}

func (r *inviteRepository) DeleteUnused(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("code = ?", code).
		Where("used = ?", false).
		Delete(&models.Invite{})
	return res.RowsAffected == 1, res.Error
}
