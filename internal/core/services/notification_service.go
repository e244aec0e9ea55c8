package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"
)

// ErrNotificationNotFound is returned when marking an unknown notification
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService handles in-app notifications
type NotificationService struct {
	repo repositories.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo repositories.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Notify sends a notification to one user
func (s *NotificationService) Notify(ctx context.Context, userID, kind, title, message string) error {
	return s.repo.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	})
}

// Broadcast sends a notification every user sees
func (s *NotificationService) Broadcast(ctx context.Context, kind, title, message string) error {
	return s.Notify(ctx, "", kind, title, message)
}

// NotifyLowStock tells everyone a product reached its threshold
func (s *NotificationService) NotifyLowStock(ctx context.Context, product *models.Product) {
	message := fmt.Sprintf("%s is down to %s %s (alert at %s)",
		product.Name,
		formatQty(product.Quantity),
		product.Unit,
		formatQty(product.MinQuantity),
	)
	if err := s.Broadcast(ctx, domain.NotificationLowStock, "Low stock: "+product.Name, message); err != nil {
		log.Printf("⚠️ Failed to notify low stock for %s: %v", product.Name, err)
	}
}

// NotifyReminder delivers a due reminder to its creator
func (s *NotificationService) NotifyReminder(ctx context.Context, reminder *models.Reminder) error {
	return s.Notify(ctx, reminder.CreatedBy, domain.NotificationReminder, reminder.Title, reminder.Note)
}

// NotifyPayment tells the seller a card payment settled
func (s *NotificationService) NotifyPayment(ctx context.Context, sale *models.Sale) {
	message := fmt.Sprintf("Card payment of %s %s received", sale.Total.StringFixed(2), sale.Currency)
	if err := s.Notify(ctx, sale.SoldBy, domain.NotificationPayment, "Payment received", message); err != nil {
		log.Printf("⚠️ Failed to notify payment %s: %v", sale.PaymentIntentID, err)
	}
}

// List returns the caller's own and broadcast notifications
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]*models.Notification, int64, error) {
	return s.repo.ListForUser(ctx, userID, unreadOnly, offset, limit)
}

// MarkRead marks one notification read
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks everything visible to the caller read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func formatQty(q float64) string {
	return fmt.Sprintf("%g", q)
}
