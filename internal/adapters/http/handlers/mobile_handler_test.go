package handlers

import (
	"testing"
	"time"

	"barstock-pos/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLiteTabs_SummarisesLines(t *testing.T) {
	tabs := []*models.Tab{
		{
			ID:        "t1",
			Name:      "Table 4",
			OpenedBy:  staff.UserID,
			CreatedAt: time.Date(2026, 3, 1, 21, 5, 0, 0, time.UTC),
			Items: []models.TabItem{
				{Name: "IPA", Quantity: 2, UnitPrice: decimal.RequireFromString("6.50")},
				{Name: "Nachos", Quantity: 1, UnitPrice: decimal.RequireFromString("9.25")},
			},
		},
		{ID: "t2", Name: "Bar", OpenedBy: manager.UserID},
	}

	lite := liteTabs(tabs, staff.UserID)

	assert.Len(t, lite, 2)
	assert.Equal(t, 2, lite[0].Items)
	assert.True(t, lite[0].Total.Equal(decimal.RequireFromString("22.25")))
	assert.True(t, lite[0].Mine)
	assert.Equal(t, "2026-03-01 21:05", lite[0].CreatedAt)
	assert.Equal(t, 0, lite[1].Items)
	assert.True(t, lite[1].Total.IsZero())
	assert.False(t, lite[1].Mine)
}

func TestLiteProduct_FlagsLowStock(t *testing.T) {
	code := "0123456789012"
	low := liteProduct(&models.Product{ID: "p1", Name: "Lime", Quantity: 2, MinQuantity: 5, Barcode: &code})
	assert.True(t, low.LowStock)
	assert.Equal(t, code, low.Barcode)
	assert.Equal(t, "product", low.Kind)

	untracked := liteProduct(&models.Product{ID: "p2", Name: "Ice", Quantity: 0})
	assert.False(t, untracked.LowStock)
	assert.Empty(t, untracked.Barcode)
}
