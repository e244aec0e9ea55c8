package services

import (
	"context"
	"strings"
	"testing"

	"barstock-pos/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport_CreatesAndUpdatesByName(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	existing := createProduct(t, e, "Lime", 4, 0, "0.30")

	csv := "\ufeffName,Category,Quantity,Price,min_quantity,barcode\n" +
		"lime,Garnish,20,0.35,5,\n" +
		"Angostura,Bitters,2,$18.50,1,0042\n" +
		",,,,,\n"

	result, err := e.inventory.Import(ctx, manager, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)

	lime, err := e.inventory.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, lime.Quantity)
	assert.Equal(t, "Garnish", lime.Category)

	bitters, err := e.inventory.GetByBarcode(ctx, "0042")
	require.NoError(t, err)
	assert.Equal(t, "Angostura", bitters.Name)
	assert.True(t, bitters.Price.Equal(decimal.RequireFromString("18.50")))

	entries := e.auditRepo.all()
	require.Len(t, entries, 3)
	for _, entry := range entries[1:] {
		assert.Equal(t, string(domain.SourceImport), entry.Source)
	}
}

func TestImport_RejectsWholeFileOnBadRows(t *testing.T) {
	e := newTestEnv()
	csv := "name,quantity,price\n" +
		"Gin,abc,20\n" +
		"Rum,3,-1\n" +
		",4,5\n" +
		"Tequila,2,30\n" +
		"tequila,1,30\n"

	_, err := e.inventory.Import(context.Background(), owner, strings.NewReader(csv))
	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	require.Len(t, importErr.Rows, 4)
	assert.Equal(t, 2, importErr.Rows[0].Row)
	assert.Equal(t, 3, importErr.Rows[1].Row)
	assert.Equal(t, 4, importErr.Rows[2].Row)
	assert.Equal(t, 6, importErr.Rows[3].Row)
	assert.Contains(t, importErr.Rows[3].Message, "duplicate of row 5")

	assert.Empty(t, e.auditRepo.all())
	assert.Empty(t, e.products.products)
}

func TestImport_HeaderProblems(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	_, err := e.inventory.Import(ctx, owner, strings.NewReader("name,colour\nGin,red\n"))
	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, 1, importErr.Rows[0].Row)

	_, err = e.inventory.Import(ctx, owner, strings.NewReader("quantity,price\n3,4\n"))
	require.ErrorAs(t, err, &importErr)

	_, err = e.inventory.Import(ctx, owner, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyImport)

	_, err = e.inventory.Import(ctx, owner, strings.NewReader("name,quantity\n"))
	assert.ErrorIs(t, err, ErrEmptyImport)
}

func TestImport_RequiresAddAndEdit(t *testing.T) {
	e := newTestEnv()
	_, err := e.inventory.Import(context.Background(), employee, strings.NewReader("name\nGin\n"))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
