package repositories

import (
	"context"
	"time"

	"barstock-pos/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type reminderRepository struct {
	db *gorm.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *reminderRepository) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reminder).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepository) List(ctx context.Context, includeDone bool, offset, limit int) ([]*models.Reminder, int64, error) {
	var reminders []*models.Reminder
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Reminder{})
	if !includeDone {
		query = query.Where("done = ?", false)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("due_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&reminders).Error
	return reminders, total, err
}

func (r *reminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	return r.db.WithContext(ctx).Save(reminder).Error
}

func (r *reminderRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Reminder{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reminderRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	err := r.db.WithContext(ctx).
		Where("done = ? AND notified = ? AND due_at <= ?", false, false, now).
		Order("due_at ASC").
		Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepository) MarkNotified(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ? AND notified = ?", id, false).
		Update("notified", true)
	return res.RowsAffected == 1, res.Error
}
