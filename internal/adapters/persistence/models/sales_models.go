package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tab is a running bill for a customer or table
type Tab struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Name            string     `gorm:"size:100;not null" json:"name"`
	Status          string     `gorm:"size:20;not null;index;default:'open'" json:"status"`
	OpenedBy        string     `gorm:"size:36;not null" json:"opened_by"`
	ClosedBy        string     `gorm:"size:36" json:"closed_by,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	PaymentMethod   string     `gorm:"size:10" json:"payment_method,omitempty"`
	PaymentIntentID string     `gorm:"size:100" json:"payment_intent_id,omitempty"`
	Items           []TabItem  `gorm:"foreignKey:TabID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Tab) TableName() string {
	return "tabs"
}

func (t *Tab) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Total sums the line totals, rounded to cents
func (t *Tab) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range t.Items {
		total = total.Add(t.Items[i].LineTotal())
	}
	return total.Round(2)
}

// TabItem is one line on a tab; the price is snapshotted when added
type TabItem struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	TabID     string          `gorm:"size:36;not null;index" json:"tab_id"`
	RecipeID  *string         `gorm:"size:36" json:"recipe_id,omitempty"`
	ProductID *string         `gorm:"size:36" json:"product_id,omitempty"`
	Name      string          `gorm:"size:150;not null" json:"name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (TabItem) TableName() string {
	return "tab_items"
}

func (i *TabItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (i *TabItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Sale is a settled payment, from a tab or a quick sale
type Sale struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	TabID           *string         `gorm:"size:36;index" json:"tab_id,omitempty"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Currency        string          `gorm:"size:3;not null" json:"currency"`
	PaymentMethod   string          `gorm:"size:10;not null" json:"payment_method"`
	PaymentIntentID string          `gorm:"size:100;index" json:"payment_intent_id,omitempty"`
	SoldBy          string          `gorm:"size:36;not null" json:"sold_by"`
	Items           []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Sale) TableName() string {
	return "sales"
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// SaleItem snapshots what was sold
type SaleItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    string          `gorm:"size:36;not null;index" json:"sale_id"`
	RecipeID  *string         `gorm:"size:36" json:"recipe_id,omitempty"`
	ProductID *string         `gorm:"size:36" json:"product_id,omitempty"`
	Name      string          `gorm:"size:150;not null" json:"name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}

func (SaleItem) TableName() string {
	return "sale_items"
}
