package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Inventory errors
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductName      = errors.New("product name is required")
	ErrBarcodeTaken     = errors.New("barcode is already assigned to another product")
	ErrInvalidQuantity  = errors.New("quantity must be a finite number")
	ErrNegativeQuantity = errors.New("quantity and threshold cannot be negative")
	ErrNegativePrice    = errors.New("price and cost cannot be negative")
	ErrRestockAmount    = errors.New("restock amount must be greater than zero")
)

// InventoryService owns every product mutation. Each mutation is checked
// against the caller's role, committed, then paired with one audit entry.
type InventoryService struct {
	products repositories.ProductRepository
	audit    *AuditRecorder
	alerts   *StockAlertService
	gate     domain.Gate
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	products repositories.ProductRepository,
	audit *AuditRecorder,
	alerts *StockAlertService,
	gate domain.Gate,
) *InventoryService {
	return &InventoryService{
		products: products,
		audit:    audit,
		alerts:   alerts,
		gate:     gate,
	}
}

// ProductInput creates or edits a product; nil fields are left unchanged
type ProductInput struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Unit        *string          `json:"unit"`
	Barcode     *string          `json:"barcode"`
	Quantity    *float64         `json:"quantity"`
	MinQuantity *float64         `json:"min_quantity"`
	Price       *decimal.Decimal `json:"price"`
	Cost        *decimal.Decimal `json:"cost"`
}

// ListProductsInput filters a product listing
type ListProductsInput struct {
	Filter repositories.ProductFilter
	Offset int
	Limit  int
}

// Create adds a product
func (s *InventoryService) Create(ctx context.Context, actor domain.Actor, input *ProductInput) (*models.Product, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanAddProducts) {
		return nil, domain.ErrForbidden
	}
	return s.create(ctx, actor, input, domain.SourceManual)
}

func (s *InventoryService) create(ctx context.Context, actor domain.Actor, input *ProductInput, source domain.ChangeSource) (*models.Product, error) {
	product := &models.Product{CreatedBy: actor.UserID}
	if err := applyProductInput(product, input, true); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrBarcodeTaken
		}
		return nil, err
	}

	s.record(ctx, InventoryChangeInput{
		ProductID:   product.ID,
		ProductName: product.Name,
		Action:      domain.ActionCreate,
		NewQuantity: product.Quantity,
		NewPrice:    &product.Price,
		Source:      source,
		Actor:       actor,
	})
	s.evaluate(ctx, product)

	log.Printf("✅ Product created: %s by %s", product.Name, actor.Username)
	return product, nil
}

// Update edits the given product fields, quantity included
func (s *InventoryService) Update(ctx context.Context, actor domain.Actor, id string, input *ProductInput) (*models.Product, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanEditProducts) {
		return nil, domain.ErrForbidden
	}
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, actor, product, input, domain.SourceManual)
}

// update writes only the fields input sets. The audit entry takes its
// previous values from the row as the write found it, not from product.
func (s *InventoryService) update(ctx context.Context, actor domain.Actor, product *models.Product, input *ProductInput, source domain.ChangeSource) (*models.Product, error) {
	next := *product
	if err := applyProductInput(&next, input, false); err != nil {
		return nil, err
	}
	fields := changedColumns(input, &next)
	if len(fields) == 0 {
		return product, nil
	}

	before, after, err := s.products.UpdateFields(ctx, product.ID, fields)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrBarcodeTaken
		case isNotFound(err):
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	s.record(ctx, InventoryChangeInput{
		ProductID:        after.ID,
		ProductName:      after.Name,
		Action:           domain.ActionUpdate,
		PreviousQuantity: &before.Quantity,
		NewQuantity:      after.Quantity,
		PreviousPrice:    &before.Price,
		NewPrice:         &after.Price,
		Source:           source,
		Actor:            actor,
	})
	s.evaluate(ctx, after)
	return after, nil
}

// Delete removes a product
func (s *InventoryService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !s.gate.HasPermission(actor.Role, domain.CanDeleteProducts) {
		return domain.ErrForbidden
	}
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrProductNotFound
		}
		return err
	}

	prevQty := product.Quantity
	s.record(ctx, InventoryChangeInput{
		ProductID:        product.ID,
		ProductName:      product.Name,
		Action:           domain.ActionDelete,
		PreviousQuantity: &prevQty,
		NewQuantity:      0,
		PreviousPrice:    &product.Price,
		Source:           domain.SourceManual,
		Actor:            actor,
	})
	log.Printf("✅ Product deleted: %s by %s", product.Name, actor.Username)
	return nil
}

// Restock adds amount to the current quantity
func (s *InventoryService) Restock(ctx context.Context, actor domain.Actor, id string, amount float64) (*models.Product, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanAdjustQuantity) {
		return nil, domain.ErrForbidden
	}
	if !finite(amount) {
		return nil, ErrInvalidQuantity
	}
	if amount <= 0 {
		return nil, ErrRestockAmount
	}
	return s.applyDelta(ctx, actor, id, amount, domain.ActionRestock, domain.SourceManual)
}

// Adjust sets the quantity to an absolute count, e.g. after a stocktake
func (s *InventoryService) Adjust(ctx context.Context, actor domain.Actor, id string, quantity float64) (*models.Product, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanAdjustQuantity) {
		return nil, domain.ErrForbidden
	}
	if !finite(quantity) {
		return nil, ErrInvalidQuantity
	}
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}
	before, product, err := s.products.UpdateFields(ctx, id, map[string]interface{}{"quantity": quantity})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	s.record(ctx, InventoryChangeInput{
		ProductID:        product.ID,
		ProductName:      product.Name,
		Action:           domain.ActionAdjustment,
		PreviousQuantity: &before.Quantity,
		NewQuantity:      product.Quantity,
		Source:           domain.SourceManual,
		Actor:            actor,
	})
	s.evaluate(ctx, product)
	return product, nil
}

// DeductForSale removes sold stock. Sales may drive quantity below zero;
// the count is corrected by the next adjustment.
func (s *InventoryService) DeductForSale(ctx context.Context, actor domain.Actor, id string, amount float64) (*models.Product, error) {
	if amount <= 0 || !finite(amount) {
		return nil, ErrInvalidQuantity
	}
	return s.applyDelta(ctx, actor, id, -amount, domain.ActionSale, domain.SourceSale)
}

func (s *InventoryService) applyDelta(ctx context.Context, actor domain.Actor, id string, delta float64, action domain.InventoryAction, source domain.ChangeSource) (*models.Product, error) {
	product, err := s.products.AddQuantity(ctx, id, delta)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	prevQty := product.Quantity - delta
	s.record(ctx, InventoryChangeInput{
		ProductID:        product.ID,
		ProductName:      product.Name,
		Action:           action,
		PreviousQuantity: &prevQty,
		NewQuantity:      product.Quantity,
		Source:           source,
		Actor:            actor,
	})
	s.evaluate(ctx, product)
	return product, nil
}

// Get returns one product
func (s *InventoryService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// GetByBarcode resolves a scanned barcode or QR payload
func (s *InventoryService) GetByBarcode(ctx context.Context, code string) (*models.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrProductNotFound
	}
	product, err := s.products.GetByBarcode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// List returns products by name
func (s *InventoryService) List(ctx context.Context, input ListProductsInput) ([]*models.Product, int64, error) {
	return s.products.List(ctx, input.Filter, input.Offset, input.Limit)
}

// record runs after the mutation committed; its failure is already logged
// by the recorder and never fails the request.
func (s *InventoryService) record(ctx context.Context, change InventoryChangeInput) {
	_ = s.audit.Record(ctx, change)
}

func (s *InventoryService) evaluate(ctx context.Context, product *models.Product) {
	if s.alerts == nil {
		return
	}
	if err := s.alerts.Evaluate(ctx, product); err != nil {
		log.Printf("⚠️ Stock alert evaluation failed for %s: %v", product.Name, err)
	}
}

func applyProductInput(p *models.Product, in *ProductInput, creating bool) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if p.Name == "" {
		return ErrProductName
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Unit != nil {
		p.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Barcode != nil {
		code := strings.TrimSpace(*in.Barcode)
		if code == "" {
			p.Barcode = nil
		} else {
			p.Barcode = &code
		}
	}
	if in.Quantity != nil {
		if !finite(*in.Quantity) {
			return ErrInvalidQuantity
		}
		if *in.Quantity < 0 {
			return ErrNegativeQuantity
		}
		p.Quantity = *in.Quantity
	}
	if in.MinQuantity != nil {
		if !finite(*in.MinQuantity) {
			return ErrInvalidQuantity
		}
		if *in.MinQuantity < 0 {
			return ErrNegativeQuantity
		}
		p.MinQuantity = *in.MinQuantity
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return ErrNegativePrice
		}
		p.Price = in.Price.Round(2)
	}
	if in.Cost != nil {
		if in.Cost.IsNegative() {
			return ErrNegativePrice
		}
		p.Cost = in.Cost.Round(2)
	}
	if creating && p.Unit == "" {
		p.Unit = "unit"
	}
	return nil
}

// changedColumns maps each field input sets to its column, taking the
// normalized value from p
func changedColumns(in *ProductInput, p *models.Product) map[string]interface{} {
	fields := make(map[string]interface{})
	if in.Name != nil {
		fields["name"] = p.Name
	}
	if in.Category != nil {
		fields["category"] = p.Category
	}
	if in.Unit != nil {
		fields["unit"] = p.Unit
	}
	if in.Barcode != nil {
		if p.Barcode == nil {
			fields["barcode"] = nil
		} else {
			fields["barcode"] = *p.Barcode
		}
	}
	if in.Quantity != nil {
		fields["quantity"] = p.Quantity
	}
	if in.MinQuantity != nil {
		fields["min_quantity"] = p.MinQuantity
	}
	if in.Price != nil {
		fields["price"] = p.Price
	}
	if in.Cost != nil {
		fields["cost"] = p.Cost
	}
	return fields
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RowError points at one malformed import row
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportError lists every malformed row; nothing was written
type ImportError struct {
	Rows []RowError
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import rejected: %d invalid rows", len(e.Rows))
}
