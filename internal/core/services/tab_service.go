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

	"github.com/shopspring/decimal"
)

// Tab errors
var (
	ErrTabNotFound     = errors.New("tab not found")
	ErrTabNotOpen      = errors.New("tab is not open")
	ErrTabEmpty        = errors.New("tab has no items")
	ErrTabName         = errors.New("tab name is required")
	ErrTabItemNotFound = errors.New("tab item not found")
)

// TabService manages running bills
type TabService struct {
	tabs     repositories.TabRepository
	recipes  repositories.RecipeRepository
	products repositories.ProductRepository
	sales    *SaleService
	gate     domain.Gate
	now      func() time.Time
}

// NewTabService creates a new tab service
func NewTabService(
	tabs repositories.TabRepository,
	recipes repositories.RecipeRepository,
	products repositories.ProductRepository,
	sales *SaleService,
	gate domain.Gate,
) *TabService {
	return &TabService{
		tabs:     tabs,
		recipes:  recipes,
		products: products,
		sales:    sales,
		gate:     gate,
		now:      time.Now,
	}
}

// Open starts a tab
func (s *TabService) Open(ctx context.Context, actor domain.Actor, name string) (*models.Tab, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTabName
	}
	tab := &models.Tab{Name: name, Status: domain.TabOpen, OpenedBy: actor.UserID, Items: []models.TabItem{}}
	if err := s.tabs.Create(ctx, tab); err != nil {
		return nil, err
	}
	return tab, nil
}

// Get returns a tab with its items
func (s *TabService) Get(ctx context.Context, id string) (*models.Tab, error) {
	tab, err := s.tabs.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTabNotFound
		}
		return nil, err
	}
	return tab, nil
}

// List returns tabs, optionally by status
func (s *TabService) List(ctx context.Context, status string, offset, limit int) ([]*models.Tab, int64, error) {
	return s.tabs.List(ctx, status, offset, limit)
}

// AddItem puts a recipe or product on an open tab at its current price
func (s *TabService) AddItem(ctx context.Context, actor domain.Actor, tabID string, line LineInput) (*models.Tab, error) {
	tab, err := s.openTab(ctx, tabID)
	if err != nil {
		return nil, err
	}
	name, price, err := resolveLine(ctx, s.recipes, s.products, line)
	if err != nil {
		return nil, err
	}
	item := &models.TabItem{
		TabID:     tab.ID,
		RecipeID:  line.RecipeID,
		ProductID: line.ProductID,
		Name:      name,
		Quantity:  line.Quantity,
		UnitPrice: price,
	}
	if err := s.tabs.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return s.Get(ctx, tabID)
}

// RemoveItem takes a line off an open tab
func (s *TabService) RemoveItem(ctx context.Context, actor domain.Actor, tabID, itemID string) (*models.Tab, error) {
	if _, err := s.openTab(ctx, tabID); err != nil {
		return nil, err
	}
	ok, err := s.tabs.RemoveItem(ctx, tabID, itemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTabItemNotFound
	}
	return s.Get(ctx, tabID)
}

// Void cancels an open tab without a sale
func (s *TabService) Void(ctx context.Context, actor domain.Actor, tabID string) error {
	if !s.gate.HasPermission(actor.Role, domain.CanEditProducts) {
		return domain.ErrForbidden
	}
	if _, err := s.Get(ctx, tabID); err != nil {
		return err
	}
	ok, err := s.tabs.Transition(ctx, tabID, domain.TabOpen, domain.TabVoided, map[string]interface{}{
		"closed_by": actor.UserID,
		"closed_at": s.now(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrTabNotOpen
	}
	log.Printf("✅ Tab %s voided by %s", tabID, actor.Username)
	return nil
}

// CloseCash settles an open tab in cash
func (s *TabService) CloseCash(ctx context.Context, actor domain.Actor, tabID string) (*models.Sale, error) {
	return s.close(ctx, actor, tabID, domain.PaymentCash, "")
}

// SettleCard settles an open tab with a confirmed card payment
func (s *TabService) SettleCard(ctx context.Context, actor domain.Actor, tabID, paymentIntentID string) (*models.Sale, error) {
	return s.close(ctx, actor, tabID, domain.PaymentCard, paymentIntentID)
}

// close claims the tab with a conditional open->closed change, so only one
// caller can settle it. If the sale cannot be written the tab is reopened.
func (s *TabService) close(ctx context.Context, actor domain.Actor, tabID, method, paymentIntentID string) (*models.Sale, error) {
	tab, err := s.openTab(ctx, tabID)
	if err != nil {
		return nil, err
	}
	if len(tab.Items) == 0 {
		return nil, ErrTabEmpty
	}

	ok, err := s.tabs.Transition(ctx, tabID, domain.TabOpen, domain.TabClosed, map[string]interface{}{
		"closed_by":         actor.UserID,
		"closed_at":         s.now(),
		"payment_method":    method,
		"payment_intent_id": paymentIntentID,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTabNotOpen
	}

	items := make([]models.SaleItem, 0, len(tab.Items))
	for _, it := range tab.Items {
		items = append(items, models.SaleItem{
			RecipeID:  it.RecipeID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	var sale *models.Sale
	if method == domain.PaymentCard {
		sale, err = s.sales.RecordCardSale(ctx, actor, &tab.ID, items, paymentIntentID)
	} else {
		sale, err = s.sales.Record(ctx, actor, &tab.ID, items, method, "")
	}
	if err != nil {
		if _, rerr := s.tabs.Transition(ctx, tabID, domain.TabClosed, domain.TabOpen, map[string]interface{}{
			"closed_by":         "",
			"closed_at":         nil,
			"payment_method":    "",
			"payment_intent_id": "",
		}); rerr != nil {
			log.Printf("❌ Tab %s closed without a sale and could not be reopened: %v", tabID, rerr)
		}
		return nil, err
	}
	return sale, nil
}

func (s *TabService) openTab(ctx context.Context, tabID string) (*models.Tab, error) {
	tab, err := s.Get(ctx, tabID)
	if err != nil {
		return nil, err
	}
	if tab.Status != domain.TabOpen {
		return nil, ErrTabNotOpen
	}
	return tab, nil
}

// resolveLine snapshots the name and current price of a recipe or product
func resolveLine(ctx context.Context, recipes repositories.RecipeRepository, products repositories.ProductRepository, line LineInput) (string, decimal.Decimal, error) {
	if line.Quantity <= 0 || (line.RecipeID == nil) == (line.ProductID == nil) {
		return "", decimal.Zero, ErrSaleItem
	}
	if line.RecipeID != nil {
		recipe, err := recipes.GetByID(ctx, *line.RecipeID)
		if err != nil {
			if isNotFound(err) {
				return "", decimal.Zero, ErrRecipeNotFound
			}
			return "", decimal.Zero, err
		}
		return recipe.Name, recipe.Price, nil
	}
	product, err := products.GetByID(ctx, *line.ProductID)
	if err != nil {
		if isNotFound(err) {
			return "", decimal.Zero, ErrProductNotFound
		}
		return "", decimal.Zero, err
	}
	return product.Name, product.Price, nil
}

func saleTotal(items []models.SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2)
}
