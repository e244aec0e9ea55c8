package services

import (
	"context"
	"errors"
	"log"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"
)

// Stock alert errors
var (
	ErrAlertNotFound = errors.New("stock alert not found")
	ErrAlertClosed   = errors.New("stock alert is no longer active")
)

// StockAlertService opens and resolves low-stock alerts
type StockAlertService struct {
	alerts        repositories.StockAlertRepository
	products      repositories.ProductRepository
	notifications *NotificationService
}

// NewStockAlertService creates a new stock alert service
func NewStockAlertService(
	alerts repositories.StockAlertRepository,
	products repositories.ProductRepository,
	notifications *NotificationService,
) *StockAlertService {
	return &StockAlertService{alerts: alerts, products: products, notifications: notifications}
}

// Evaluate opens an alert when product is at or under its threshold and
// resolves the active one once it recovers. At most one alert is active
// per product.
func (s *StockAlertService) Evaluate(ctx context.Context, product *models.Product) error {
	active, err := s.alerts.GetActiveByProduct(ctx, product.ID)
	if err != nil && !isNotFound(err) {
		return err
	}
	if isNotFound(err) {
		active = nil
	}

	switch {
	case product.IsLow() && active == nil:
		alert := &models.StockAlert{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    product.Quantity,
			Threshold:   product.MinQuantity,
			Status:      domain.AlertActive,
		}
		if err := s.alerts.Create(ctx, alert); err != nil {
			return err
		}
		log.Printf("⚠️ Low stock: %s at %g (threshold %g)", product.Name, product.Quantity, product.MinQuantity)
		s.notifications.NotifyLowStock(ctx, product)
	case !product.IsLow() && active != nil:
		return s.alerts.SetStatus(ctx, active.ID, domain.AlertResolved)
	}
	return nil
}

// ScanAll evaluates every product under its threshold (cron)
func (s *StockAlertService) ScanAll(ctx context.Context) (int, error) {
	low, err := s.products.ListLowStock(ctx)
	if err != nil {
		return 0, err
	}
	for _, product := range low {
		if err := s.Evaluate(ctx, product); err != nil {
			log.Printf("⚠️ Stock scan failed for %s: %v", product.Name, err)
		}
	}

	// resolve alerts whose product recovered or was removed
	active, _, err := s.alerts.List(ctx, domain.AlertActive, 0, 500)
	if err != nil {
		return len(low), err
	}
	for _, alert := range active {
		product, err := s.products.GetByID(ctx, alert.ProductID)
		switch {
		case isNotFound(err):
			s.resolve(ctx, alert)
		case err != nil:
			log.Printf("⚠️ Stock scan could not load %s for alert %s: %v", alert.ProductName, alert.ID, err)
		case !product.IsLow():
			s.resolve(ctx, alert)
		}
	}
	return len(low), nil
}

// resolve closes an alert during a scan; a failure leaves it active for the next run
func (s *StockAlertService) resolve(ctx context.Context, alert *models.StockAlert) {
	if err := s.alerts.SetStatus(ctx, alert.ID, domain.AlertResolved); err != nil {
		log.Printf("⚠️ Could not resolve stock alert %s for %s: %v", alert.ID, alert.ProductName, err)
	}
}

// List returns alerts, optionally by status
func (s *StockAlertService) List(ctx context.Context, status string, offset, limit int) ([]*models.StockAlert, int64, error) {
	return s.alerts.List(ctx, status, offset, limit)
}

// Dismiss closes an active alert without restocking
func (s *StockAlertService) Dismiss(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.Role.AtLeast(domain.RoleManager) {
		return domain.ErrForbidden
	}
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrAlertNotFound
		}
		return err
	}
	if alert.Status != domain.AlertActive {
		return ErrAlertClosed
	}
	return s.alerts.SetStatus(ctx, id, domain.AlertDismissed)
}
