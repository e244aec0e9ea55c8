package services

import (
	"context"
	"errors"
	"time"

	"barstock-pos/internal/core/terminal"

	"gorm.io/gorm"
)

// PaymentGateway is the confirming server's view of one set of vendor credentials
type PaymentGateway interface {
	ConnectionToken(ctx context.Context) (string, error)
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*terminal.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*terminal.PaymentIntent, error)
	CancelIntent(ctx context.Context, id string) (*terminal.PaymentIntent, error)
}

// PaymentProvider builds gateways and readers for a secret key.
// Only the vendor adapter knows what the key means.
type PaymentProvider interface {
	Gateway(secretKey string) PaymentGateway
	Reader(secretKey string) terminal.Reader
}

// Completer asks a language model for a JSON object answering prompt
type Completer interface {
	CompleteJSON(ctx context.Context, system, prompt string) (string, error)
}

// ResultCache stores serialized analytics results
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ErrIntentNotFound is returned by gateways for unknown intents
var ErrIntentNotFound = errors.New("payment intent not found")

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
