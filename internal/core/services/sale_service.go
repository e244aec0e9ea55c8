package services

import (
	"context"
	"errors"
	"log"
	"time"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"
)

// Sale errors
var (
	ErrSaleNotFound      = errors.New("sale not found")
	ErrSaleEmpty         = errors.New("a sale needs at least one item")
	ErrSaleItem          = errors.New("each item needs a recipe or a product and a positive quantity")
	ErrInvalidPayMethod  = errors.New("payment method must be cash or card")
	ErrCardNeedsCheckout = errors.New("card sales are recorded by the checkout flow")
)

// SaleService records settled sales and deducts the stock they used
type SaleService struct {
	sales     repositories.SaleRepository
	recipes   repositories.RecipeRepository
	products  repositories.ProductRepository
	inventory *InventoryService
	currency  string
}

// NewSaleService creates a new sale service
func NewSaleService(
	sales repositories.SaleRepository,
	recipes repositories.RecipeRepository,
	products repositories.ProductRepository,
	inventory *InventoryService,
	currency string,
) *SaleService {
	return &SaleService{
		sales:     sales,
		recipes:   recipes,
		products:  products,
		inventory: inventory,
		currency:  currency,
	}
}

// LineInput names a recipe or a product and how many were sold
type LineInput struct {
	RecipeID  *string `json:"recipe_id"`
	ProductID *string `json:"product_id"`
	Quantity  int     `json:"quantity"`
}

// QuickSaleInput is a sale without a tab
type QuickSaleInput struct {
	Items         []LineInput `json:"items"`
	PaymentMethod string      `json:"payment_method"`
}

// QuickSale prices the lines at their current price and records a cash sale
func (s *SaleService) QuickSale(ctx context.Context, actor domain.Actor, input *QuickSaleInput) (*models.Sale, error) {
	method := input.PaymentMethod
	if method == "" {
		method = domain.PaymentCash
	}
	switch method {
	case domain.PaymentCash:
	case domain.PaymentCard:
		return nil, ErrCardNeedsCheckout
	default:
		return nil, ErrInvalidPayMethod
	}
	if len(input.Items) == 0 {
		return nil, ErrSaleEmpty
	}

	items := make([]models.SaleItem, 0, len(input.Items))
	for _, line := range input.Items {
		name, price, err := resolveLine(ctx, s.recipes, s.products, line)
		if err != nil {
			return nil, err
		}
		items = append(items, models.SaleItem{
			RecipeID:  line.RecipeID,
			ProductID: line.ProductID,
			Name:      name,
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
	}
	return s.Record(ctx, actor, nil, items, method, "")
}

// Record writes a sale, then deducts stock for every item
func (s *SaleService) Record(ctx context.Context, actor domain.Actor, tabID *string, items []models.SaleItem, method, paymentIntentID string) (*models.Sale, error) {
	if len(items) == 0 {
		return nil, ErrSaleEmpty
	}
	sale := &models.Sale{
		TabID:           tabID,
		Currency:        s.currency,
		PaymentMethod:   method,
		PaymentIntentID: paymentIntentID,
		SoldBy:          actor.UserID,
		Items:           items,
	}
	sale.Total = saleTotal(items)

	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, err
	}
	s.deduct(ctx, actor, items)
	log.Printf("✅ Sale %s recorded: %s %s (%s) by %s", sale.ID, sale.Total.StringFixed(2), sale.Currency, method, actor.Username)
	return sale, nil
}

// RecordCardSale is Record for a settled card payment. A second call for
// the same payment intent returns the first sale.
func (s *SaleService) RecordCardSale(ctx context.Context, actor domain.Actor, tabID *string, items []models.SaleItem, paymentIntentID string) (*models.Sale, error) {
	existing, err := s.sales.GetByPaymentIntentID(ctx, paymentIntentID)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	return s.Record(ctx, actor, tabID, items, domain.PaymentCard, paymentIntentID)
}

// Get returns one sale
func (s *SaleService) Get(ctx context.Context, id string) (*models.Sale, error) {
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return sale, nil
}

// List returns sales newest first, optionally within [from, to)
func (s *SaleService) List(ctx context.Context, from, to *time.Time, offset, limit int) ([]*models.Sale, int64, error) {
	return s.sales.List(ctx, from, to, offset, limit)
}

// deduct runs after the sale committed; a failed deduction is logged and
// left for the next stock adjustment to correct.
func (s *SaleService) deduct(ctx context.Context, actor domain.Actor, items []models.SaleItem) {
	for _, item := range items {
		switch {
		case item.RecipeID != nil:
			recipe, err := s.recipes.GetByID(ctx, *item.RecipeID)
			if err != nil {
				log.Printf("⚠️ Stock not deducted for recipe %s: %v", *item.RecipeID, err)
				continue
			}
			for _, ing := range recipe.Ingredients {
				s.deductOne(ctx, actor, ing.ProductID, ing.Quantity*float64(item.Quantity))
			}
		case item.ProductID != nil:
			s.deductOne(ctx, actor, *item.ProductID, float64(item.Quantity))
		}
	}
}

func (s *SaleService) deductOne(ctx context.Context, actor domain.Actor, productID string, amount float64) {
	if _, err := s.inventory.DeductForSale(ctx, actor, productID, amount); err != nil {
		log.Printf("⚠️ Stock not deducted for product %s (%g): %v", productID, amount, err)
	}
}
