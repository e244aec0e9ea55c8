package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"
)

// Reminder errors
var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrReminderTitle    = errors.New("reminder title and due time are required")
)

// ReminderService manages staff reminders
type ReminderService struct {
	repo          repositories.ReminderRepository
	notifications *NotificationService
	now           func() time.Time
}

// NewReminderService creates a new reminder service
func NewReminderService(repo repositories.ReminderRepository, notifications *NotificationService) *ReminderService {
	return &ReminderService{repo: repo, notifications: notifications, now: time.Now}
}

// ReminderInput creates or edits a reminder
type ReminderInput struct {
	Title *string    `json:"title"`
	Note  *string    `json:"note"`
	DueAt *time.Time `json:"due_at"`
	Done  *bool      `json:"done"`
}

// Create adds a reminder owned by the caller
func (s *ReminderService) Create(ctx context.Context, actor domain.Actor, input *ReminderInput) (*models.Reminder, error) {
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" || input.DueAt == nil {
		return nil, ErrReminderTitle
	}
	reminder := &models.Reminder{
		Title:     strings.TrimSpace(*input.Title),
		DueAt:     input.DueAt.UTC(),
		CreatedBy: actor.UserID,
	}
	if input.Note != nil {
		reminder.Note = *input.Note
	}
	if err := s.repo.Create(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

// Get returns one reminder
func (s *ReminderService) Get(ctx context.Context, id string) (*models.Reminder, error) {
	reminder, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrReminderNotFound
		}
		return nil, err
	}
	return reminder, nil
}

// List returns reminders by due time
func (s *ReminderService) List(ctx context.Context, includeDone bool, offset, limit int) ([]*models.Reminder, int64, error) {
	return s.repo.List(ctx, includeDone, offset, limit)
}

// Update edits a reminder; moving the due time re-arms it
func (s *ReminderService) Update(ctx context.Context, id string, input *ReminderInput) (*models.Reminder, error) {
	reminder, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrReminderTitle
		}
		reminder.Title = title
	}
	if input.Note != nil {
		reminder.Note = *input.Note
	}
	if input.DueAt != nil && !input.DueAt.Equal(reminder.DueAt) {
		reminder.DueAt = input.DueAt.UTC()
		reminder.Notified = false
	}
	if input.Done != nil {
		reminder.Done = *input.Done
	}
	if err := s.repo.Update(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

// Delete removes a reminder
func (s *ReminderService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// DispatchDue turns due reminders into notifications, each at most once
func (s *ReminderService) DispatchDue(ctx context.Context) (int, error) {
	due, err := s.repo.ListDue(ctx, s.now())
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, reminder := range due {
		claimed, err := s.repo.MarkNotified(ctx, reminder.ID)
		if err != nil {
			log.Printf("⚠️ Failed to claim reminder %s: %v", reminder.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		if err := s.notifications.NotifyReminder(ctx, reminder); err != nil {
			log.Printf("⚠️ Failed to deliver reminder %s: %v", reminder.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}
