package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// barSetup stocks gin and tonic and a G&T recipe using 0.05 gin and 1 tonic
func barSetup(t *testing.T, e *testEnv) (gin, tonic *models.Product, gt *models.Recipe) {
	t.Helper()
	gin = createProduct(t, e, "Gin", 1, 0, "30")
	tonic = createProduct(t, e, "Tonic", 24, 0, "2.50")
	gt, err := e.recipeSvc.Create(context.Background(), manager, &RecipeInput{
		Name:  "G&T",
		Price: decimal.RequireFromString("9.50"),
		Ingredients: []IngredientInput{
			{ProductID: gin.ID, Quantity: 0.05},
			{ProductID: tonic.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	return gin, tonic, gt
}

func TestTab_CloseCashRecordsSaleAndDeductsStock(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	gin, tonic, gt := barSetup(t, e)

	tab, err := e.tabs.Open(ctx, employee, "Table 4")
	require.NoError(t, err)

	tab, err = e.tabs.AddItem(ctx, employee, tab.ID, LineInput{RecipeID: &gt.ID, Quantity: 2})
	require.NoError(t, err)
	tab, err = e.tabs.AddItem(ctx, employee, tab.ID, LineInput{ProductID: &tonic.ID, Quantity: 1})
	require.NoError(t, err)
	assert.True(t, tab.Total().Equal(decimal.RequireFromString("21.50")))

	sale, err := e.tabs.CloseCash(ctx, employee, tab.ID)
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("21.50")))
	assert.Equal(t, domain.PaymentCash, sale.PaymentMethod)
	assert.Equal(t, tab.ID, *sale.TabID)

	assert.InDelta(t, 0.9, e.products.quantity(gin.ID), 1e-9)
	assert.InDelta(t, 21.0, e.products.quantity(tonic.ID), 1e-9)

	closed, err := e.tabs.Get(ctx, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TabClosed, closed.Status)

	var sales int
	for _, entry := range e.auditRepo.all() {
		if entry.Action == string(domain.ActionSale) {
			sales++
			assert.Equal(t, string(domain.SourceSale), entry.Source)
		}
	}
	assert.Equal(t, 3, sales)
}

func TestTab_DoubleCloseProducesOneSale(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	_, tonic, _ := barSetup(t, e)

	tab, err := e.tabs.Open(ctx, employee, "Bar 1")
	require.NoError(t, err)
	_, err = e.tabs.AddItem(ctx, employee, tab.ID, LineInput{ProductID: &tonic.ID, Quantity: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.tabs.CloseCash(ctx, employee, tab.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrTabNotOpen)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, e.saleRepo.count())
}

func TestTab_SaleFailureReopensTab(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	_, tonic, _ := barSetup(t, e)

	tab, _ := e.tabs.Open(ctx, employee, "Patio")
	_, err := e.tabs.AddItem(ctx, employee, tab.ID, LineInput{ProductID: &tonic.ID, Quantity: 2})
	require.NoError(t, err)

	e.saleRepo.CreateErr = errors.New("deadlock")
	_, err = e.tabs.CloseCash(ctx, employee, tab.ID)
	require.Error(t, err)

	reopened, err := e.tabs.Get(ctx, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TabOpen, reopened.Status)
	assert.Empty(t, reopened.PaymentMethod)
	assert.Equal(t, 24.0, e.products.quantity(tonic.ID))
}

func TestTab_Rules(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	_, tonic, _ := barSetup(t, e)

	_, err := e.tabs.Open(ctx, employee, "  ")
	assert.ErrorIs(t, err, ErrTabName)

	tab, _ := e.tabs.Open(ctx, employee, "Booth")
	_, err = e.tabs.CloseCash(ctx, employee, tab.ID)
	assert.ErrorIs(t, err, ErrTabEmpty)

	_, err = e.tabs.AddItem(ctx, employee, tab.ID, LineInput{ProductID: &tonic.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrSaleItem)
	_, err = e.tabs.AddItem(ctx, employee, tab.ID, LineInput{Quantity: 1})
	assert.ErrorIs(t, err, ErrSaleItem)
	_, err = e.tabs.AddItem(ctx, employee, tab.ID, LineInput{ProductID: strPtr("missing"), Quantity: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)

	withItem, err := e.tabs.AddItem(ctx, employee, tab.ID, LineInput{ProductID: &tonic.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = e.tabs.RemoveItem(ctx, employee, tab.ID, "nope")
	assert.ErrorIs(t, err, ErrTabItemNotFound)
	emptied, err := e.tabs.RemoveItem(ctx, employee, tab.ID, withItem.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, emptied.Items)

	assert.ErrorIs(t, e.tabs.Void(ctx, employee, tab.ID), domain.ErrForbidden)
	require.NoError(t, e.tabs.Void(ctx, manager, tab.ID))
	assert.ErrorIs(t, e.tabs.Void(ctx, manager, tab.ID), ErrTabNotOpen)

	_, err = e.tabs.AddItem(ctx, employee, tab.ID, LineInput{ProductID: &tonic.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrTabNotOpen)
	_, err = e.tabs.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrTabNotFound)
}

func TestQuickSale(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	gin, _, gt := barSetup(t, e)

	sale, err := e.sales.QuickSale(ctx, employee, &QuickSaleInput{Items: []LineInput{{RecipeID: &gt.ID, Quantity: 30}}})
	require.NoError(t, err)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("285")))
	assert.Equal(t, "usd", sale.Currency)

	// stock may go negative from sales
	assert.InDelta(t, -0.5, e.products.quantity(gin.ID), 1e-9)

	_, err = e.sales.QuickSale(ctx, employee, &QuickSaleInput{Items: []LineInput{{RecipeID: &gt.ID, Quantity: 1}}, PaymentMethod: "card"})
	assert.ErrorIs(t, err, ErrCardNeedsCheckout)
	_, err = e.sales.QuickSale(ctx, employee, &QuickSaleInput{Items: []LineInput{{RecipeID: &gt.ID, Quantity: 1}}, PaymentMethod: "iou"})
	assert.ErrorIs(t, err, ErrInvalidPayMethod)
	_, err = e.sales.QuickSale(ctx, employee, &QuickSaleInput{})
	assert.ErrorIs(t, err, ErrSaleEmpty)
}

func TestRecordCardSale_IsIdempotentPerIntent(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	items := []models.SaleItem{{Name: "Card payment", Quantity: 1, UnitPrice: decimal.NewFromInt(12)}}

	first, err := e.sales.RecordCardSale(ctx, employee, nil, items, "pi_1")
	require.NoError(t, err)
	second, err := e.sales.RecordCardSale(ctx, employee, nil, items, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, e.saleRepo.count())
}

func TestRecipe_Validation(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	gin, _, gt := barSetup(t, e)

	_, err := e.recipeSvc.Create(ctx, employee, &RecipeInput{Name: "Martini"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.recipeSvc.Create(ctx, manager, &RecipeInput{Name: ""})
	assert.ErrorIs(t, err, ErrRecipeName)
	_, err = e.recipeSvc.Create(ctx, manager, &RecipeInput{Name: "Martini", Ingredients: []IngredientInput{{ProductID: "missing", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrRecipeIngredient)
	_, err = e.recipeSvc.Create(ctx, manager, &RecipeInput{Name: "Martini", Ingredients: []IngredientInput{{ProductID: gin.ID, Quantity: 0}}})
	assert.ErrorIs(t, err, ErrRecipeIngredient)

	updated, err := e.recipeSvc.Update(ctx, manager, gt.ID, &RecipeInput{
		Name:        "Gin & Tonic",
		Price:       decimal.RequireFromString("10"),
		Ingredients: []IngredientInput{{ProductID: gin.ID, Quantity: 0.06}},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Ingredients, 1)

	assert.ErrorIs(t, e.recipeSvc.Delete(ctx, manager, gt.ID), domain.ErrForbidden)
	require.NoError(t, e.recipeSvc.Delete(ctx, owner, gt.ID))
	_, err = e.recipeSvc.Get(ctx, gt.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}
