package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/terminal"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTabWith(t *testing.T, e *testEnv, qty int) string {
	t.Helper()
	ctx := context.Background()
	_, tonic, _ := barSetup(t, e)
	tab, err := e.tabs.Open(ctx, employee, "Window")
	require.NoError(t, err)
	_, err = e.tabs.AddItem(ctx, employee, tab.ID, LineInput{ProductID: &tonic.ID, Quantity: qty})
	require.NoError(t, err)
	return tab.ID
}

func TestCheckout_TabSettlesOnSuccess(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.withKey(employee)
	tabID := openTabWith(t, e, 3)

	view, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{TabID: &tabID})
	require.NoError(t, err)
	assert.Equal(t, terminal.StatusConnected, view.Status)
	assert.True(t, view.ReaderConnected)

	view, err = e.checkout.Collect(ctx, employee, view.ID, &CollectInput{})
	require.NoError(t, err)
	e.checkout.wait(view.ID)

	view, err = e.checkout.Get(ctx, employee, view.ID)
	require.NoError(t, err)
	assert.Equal(t, terminal.StatusSuccess, view.Status)
	assert.True(t, view.Amount.Equal(decimal.RequireFromString("7.50")))
	assert.False(t, view.Collecting)
	require.NotEmpty(t, view.SaleID)
	assert.Empty(t, view.SettleError)

	sale, err := e.sales.Get(ctx, view.SaleID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCard, sale.PaymentMethod)
	assert.Equal(t, view.PaymentIntentID, sale.PaymentIntentID)

	tab, err := e.tabs.Get(ctx, tabID)
	require.NoError(t, err)
	assert.Equal(t, domain.TabClosed, tab.Status)

	pi := e.provider.gateway.intent(view.PaymentIntentID)
	assert.Equal(t, employee.UserID, pi.Metadata[OwnerMetadataKey])
	assert.Equal(t, tabID, pi.Metadata["tabId"])

	assert.Len(t, e.notifRepo.byType(domain.NotificationPayment), 1)
	assert.Equal(t, 1, e.provider.reader(0).disconnects())
}

func TestCheckout_DeclineLeavesTabOpen(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.withKey(employee)
	e.provider.gateway.SettleStatus = "requires_payment_method"
	tabID := openTabWith(t, e, 1)

	view, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{TabID: &tabID})
	require.NoError(t, err)
	_, err = e.checkout.Collect(ctx, employee, view.ID, &CollectInput{})
	require.NoError(t, err)
	e.checkout.wait(view.ID)

	view, _ = e.checkout.Get(ctx, employee, view.ID)
	assert.Equal(t, terminal.StatusError, view.Status)
	assert.True(t, view.Closed)
	assert.Empty(t, view.SaleID)

	tab, _ := e.tabs.Get(ctx, tabID)
	assert.Equal(t, domain.TabOpen, tab.Status)
	assert.Equal(t, 0, e.saleRepo.count())
	assert.Equal(t, terminal.IntentCanceled, e.provider.gateway.intent(view.PaymentIntentID).Status)
}

func TestCheckout_AmountWithoutTab(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.withKey(employee)

	view, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{})
	require.NoError(t, err)

	_, err = e.checkout.Collect(ctx, employee, view.ID, &CollectInput{})
	assert.ErrorIs(t, err, ErrCheckoutAmount)
	_, err = e.checkout.Collect(ctx, employee, view.ID, &CollectInput{Amount: decPtr("0")})
	assert.ErrorIs(t, err, terminal.ErrInvalidAmount)
	_, err = e.checkout.Collect(ctx, employee, view.ID, &CollectInput{Amount: decPtr("1.234")})
	assert.ErrorIs(t, err, ErrAmountPrecision)

	_, err = e.checkout.Collect(ctx, employee, view.ID, &CollectInput{Amount: decPtr("42")})
	require.NoError(t, err)
	e.checkout.wait(view.ID)

	view, _ = e.checkout.Get(ctx, employee, view.ID)
	require.NotEmpty(t, view.SaleID)
	sale, err := e.sales.Get(ctx, view.SaleID)
	require.NoError(t, err)
	assert.Nil(t, sale.TabID)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(42)))
}

func TestCheckout_ConnectFailureIsRetryable(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.withKey(employee)
	e.provider.ConnectErr = errors.New("bluetooth off")

	view, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{})
	require.NoError(t, err)
	assert.Equal(t, terminal.StatusError, view.Status)
	assert.True(t, view.Retryable)
	assert.NotEmpty(t, view.ErrorMessage)

	_, err = e.checkout.Collect(ctx, employee, view.ID, &CollectInput{Amount: decPtr("5")})
	assert.ErrorIs(t, err, terminal.ErrNotConnected)

	e.provider.reader(0).mu.Lock()
	e.provider.reader(0).ConnectErr = nil
	e.provider.reader(0).mu.Unlock()

	view, err = e.checkout.Connect(ctx, employee, view.ID)
	require.NoError(t, err)
	assert.Equal(t, terminal.StatusConnected, view.Status)
}

func TestCheckout_SessionsAreOwnedAndReplaced(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.withKey(employee)

	first, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{})
	require.NoError(t, err)

	_, err = e.checkout.Get(ctx, manager, first.ID)
	assert.ErrorIs(t, err, ErrCheckoutNotFound)

	second, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = e.checkout.Get(ctx, employee, first.ID)
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
	assert.Equal(t, 1, e.provider.reader(0).disconnects())

	view, err := e.checkout.Cancel(ctx, employee, second.ID)
	require.NoError(t, err)
	assert.Equal(t, terminal.StatusCanceled, view.Status)

	require.NoError(t, e.checkout.Abandon(ctx, employee, second.ID))
	_, err = e.checkout.Get(ctx, employee, second.ID)
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
}

func TestCheckout_StartRejectsClosedOrEmptyTab(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.withKey(employee)

	empty, _ := e.tabs.Open(ctx, employee, "Empty")
	_, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{TabID: &empty.ID})
	assert.ErrorIs(t, err, ErrTabEmpty)

	tabID := openTabWith(t, e, 1)
	_, err = e.tabs.CloseCash(ctx, employee, tabID)
	require.NoError(t, err)
	_, err = e.checkout.Start(ctx, employee, &StartCheckoutInput{TabID: &tabID})
	assert.ErrorIs(t, err, ErrTabNotOpen)

	_, err = e.checkout.Start(ctx, manager, &StartCheckoutInput{})
	assert.ErrorIs(t, err, domain.ErrPaymentsNotConfigured)
}

func TestCheckout_SweepStale(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.withKey(employee)

	view, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{})
	require.NoError(t, err)

	assert.Equal(t, 0, e.checkout.SweepStale(ctx))

	e.checkout.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, 1, e.checkout.SweepStale(ctx))

	_, err = e.checkout.Get(ctx, employee, view.ID)
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
	assert.Equal(t, 1, e.provider.reader(0).disconnects())
}

func TestCheckout_SharedReaderHasOneHolder(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.withKey(employee)
	e.withKey(manager)
	e.provider.Device = "tmr_1"

	first, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{})
	require.NoError(t, err)
	assert.True(t, first.ReaderConnected)

	second, err := e.checkout.Start(ctx, manager, &StartCheckoutInput{})
	require.NoError(t, err)
	assert.True(t, second.ReaderConnected)

	// binding tmr_1 for the manager released the employee's session
	_, err = e.checkout.Get(ctx, employee, first.ID)
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
	assert.Equal(t, 1, e.provider.reader(0).disconnects())

	// the employee can no longer tear down the manager's reader
	assert.ErrorIs(t, e.checkout.Abandon(ctx, employee, first.ID), ErrCheckoutNotFound)
	assert.Equal(t, 0, e.provider.reader(1).disconnects())

	view, err := e.checkout.Get(ctx, manager, second.ID)
	require.NoError(t, err)
	assert.Equal(t, terminal.StatusConnected, view.Status)

	_, err = e.checkout.Collect(ctx, manager, second.ID, &CollectInput{Amount: decPtr("12")})
	require.NoError(t, err)
	e.checkout.wait(second.ID)
	view, _ = e.checkout.Get(ctx, manager, second.ID)
	assert.Equal(t, terminal.StatusSuccess, view.Status)
}

func TestCheckout_DistinctReadersCoexist(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.withKey(employee)
	e.withKey(manager)

	e.provider.Device = "tmr_bar"
	first, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{})
	require.NoError(t, err)

	e.provider.Device = "tmr_patio"
	_, err = e.checkout.Start(ctx, manager, &StartCheckoutInput{})
	require.NoError(t, err)

	view, err := e.checkout.Get(ctx, employee, first.ID)
	require.NoError(t, err)
	assert.True(t, view.ReaderConnected)
	assert.Equal(t, 0, e.provider.reader(0).disconnects())
}

func TestCheckout_ReleasedReaderCanBeClaimedAgain(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	e.withKey(employee)
	e.withKey(manager)
	e.provider.Device = "tmr_1"

	first, err := e.checkout.Start(ctx, employee, &StartCheckoutInput{})
	require.NoError(t, err)
	require.NoError(t, e.checkout.Abandon(ctx, employee, first.ID))
	assert.Equal(t, 1, e.provider.reader(0).disconnects())

	second, err := e.checkout.Start(ctx, manager, &StartCheckoutInput{})
	require.NoError(t, err)
	assert.True(t, second.ReaderConnected)
	assert.Equal(t, 1, e.provider.reader(0).disconnects(), "a released holder is not abandoned twice")
}
