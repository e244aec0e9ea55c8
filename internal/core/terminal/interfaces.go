package terminal

import (
	"context"

	"github.com/shopspring/decimal"
)

// Intent statuses the session cares about
const (
	IntentSucceeded      = "succeeded"
	IntentRequiresAction = "requires_action"
	IntentCanceled       = "canceled"
)

// PaymentIntent is the vendor-neutral view of an amount-bearing payment record
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"-"`
	Status       string            `json:"status"`
	Amount       decimal.Decimal   `json:"amount"`
	AmountMinor  int64             `json:"amountMinor"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"-"`
}

// PaymentServer is the confirming server: it owns intents and decides settlement
type PaymentServer interface {
	ConnectionToken(ctx context.Context) (string, error)
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (*PaymentIntent, error)
	ConfirmPayment(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)
	CancelPayment(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)
}

// Reader is the card-present device binding
type Reader interface {
	Initialize(ctx context.Context, connectionToken string) error
	DiscoverAndConnect(ctx context.Context) error
	CollectPaymentMethod(ctx context.Context, intent *PaymentIntent) error
	ProcessPayment(ctx context.Context, intent *PaymentIntent) error
	Disconnect(ctx context.Context) error
}

// DeviceReader is a Reader that can name the physical device it is bound to.
// DeviceID is empty while unbound.
type DeviceReader interface {
	Reader
	DeviceID() string
}
