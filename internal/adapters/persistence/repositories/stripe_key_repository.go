package repositories

import (
	"context"

	"barstock-pos/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type stripeKeyRepository struct {
	db *gorm.DB
}

// NewStripeKeyRepository creates a new stripe key repository
func NewStripeKeyRepository(db *gorm.DB) StripeKeyRepository {
	return &stripeKeyRepository{db: db}
}

func (r *stripeKeyRepository) Get(ctx context.Context, userID string) (*models.StripeKey, error) {
	var key models.StripeKey
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&key).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *stripeKeyRepository) Upsert(ctx context.Context, key *models.StripeKey) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"secret_key", "publishable_key", "updated_at"}),
	}).Create(key).Error
}

func (r *stripeKeyRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.StripeKey{}).Error
}
