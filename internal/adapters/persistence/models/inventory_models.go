package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrAuditImmutable is returned by any attempt to rewrite an audit entry
var ErrAuditImmutable = errors.New("inventory change log entries are immutable")

// Product represents products table
type Product struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	Name        string          `gorm:"size:150;not null;index" json:"name"`
	Category    string          `gorm:"size:100;index" json:"category"`
	Unit        string          `gorm:"size:30" json:"unit"`
	Barcode     *string         `gorm:"size:64;uniqueIndex" json:"barcode,omitempty"`
	Quantity    float64         `gorm:"type:decimal(12,3);not null;default:0" json:"quantity"`
	MinQuantity float64         `gorm:"type:decimal(12,3);not null;default:0" json:"min_quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Cost        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"cost"`
	CreatedBy   string          `gorm:"size:36" json:"created_by"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// IsLow reports whether stock is at or under the alert threshold. 0 disables alerts.
func (p *Product) IsLow() bool {
	return p.MinQuantity > 0 && p.Quantity <= p.MinQuantity
}

// Recipe is a sellable drink or dish made from products
type Recipe struct {
	ID          string             `gorm:"primaryKey;size:36" json:"id"`
	Name        string             `gorm:"size:150;not null;index" json:"name"`
	Category    string             `gorm:"size:100" json:"category"`
	Price       decimal.Decimal    `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Recipe) TableName() string {
	return "recipes"
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RecipeIngredient is the amount of one product used per unit of a recipe
type RecipeIngredient struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	RecipeID  string  `gorm:"size:36;not null;index" json:"recipe_id"`
	ProductID string  `gorm:"size:36;not null;index" json:"product_id"`
	Quantity  float64 `gorm:"type:decimal(12,3);not null" json:"quantity"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

// InventoryChangeLog is an append-only record of one stock mutation
type InventoryChangeLog struct {
	ID               string              `gorm:"primaryKey;size:36" json:"id"`
	ProductID        string              `gorm:"size:36;not null;index" json:"productId"`
	ProductName      string              `gorm:"size:150;not null" json:"productName"`
	Action           string              `gorm:"size:20;not null;index" json:"action"`
	PreviousQuantity *float64            `gorm:"type:decimal(12,3)" json:"previousQuantity,omitempty"`
	NewQuantity      float64             `gorm:"type:decimal(12,3);not null" json:"newQuantity"`
	PreviousPrice    decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"previousPrice"`
	NewPrice         decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"newPrice"`
	Source           string              `gorm:"size:20;not null" json:"source"`
	ActingUser       string              `gorm:"size:36;not null;index" json:"actingUser"`
	ActingUsername   string              `gorm:"size:50" json:"actingUsername"`
	Timestamp        time.Time           `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (InventoryChangeLog) TableName() string {
	return "inventory_change_logs"
}

func (l *InventoryChangeLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// BeforeUpdate rejects every update
func (l *InventoryChangeLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditImmutable
}

// BeforeDelete rejects every delete; only a hook-skipping session can purge
func (l *InventoryChangeLog) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditImmutable
}

// StockAlert is opened when a product drops to its threshold
type StockAlert struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	ProductID   string     `gorm:"size:36;not null;index" json:"product_id"`
	ProductName string     `gorm:"size:150;not null" json:"product_name"`
	Quantity    float64    `gorm:"type:decimal(12,3)" json:"quantity"`
	Threshold   float64    `gorm:"type:decimal(12,3)" json:"threshold"`
	Status      string     `gorm:"size:20;not null;index" json:"status"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

func (StockAlert) TableName() string {
	return "stock_alerts"
}

func (a *StockAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
