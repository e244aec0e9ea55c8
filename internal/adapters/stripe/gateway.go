package stripe

import (
	"context"
	"errors"
	"fmt"

	"barstock-pos/internal/core/services"
	"barstock-pos/internal/core/terminal"
	"barstock-pos/internal/pkg/money"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Gateway talks to the Stripe API with one secret key
type Gateway struct {
	api *client.API
}

// NewGateway creates a gateway; backends may be nil for the live API
func NewGateway(secretKey string, backends *stripe.Backends) *Gateway {
	return &Gateway{api: client.New(secretKey, backends)}
}

func (g *Gateway) ConnectionToken(ctx context.Context) (string, error) {
	params := &stripe.TerminalConnectionTokenParams{}
	params.Context = ctx
	token, err := g.api.TerminalConnectionTokens.New(params)
	if err != nil {
		return "", fmt.Errorf("create connection token: %w", err)
	}
	return token.Secret, nil
}

// CreateIntent creates a card-present intent captured on confirmation
func (g *Gateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*terminal.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card_present"}),
		CaptureMethod:      stripe.String(string(stripe.PaymentIntentCaptureMethodAutomatic)),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (g *Gateway) GetIntent(ctx context.Context, id string) (*terminal.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, mapIntentError(err)
	}
	return toIntent(pi), nil
}

func (g *Gateway) CancelIntent(ctx context.Context, id string) (*terminal.PaymentIntent, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Cancel(id, params)
	if err != nil {
		return nil, mapIntentError(err)
	}
	return toIntent(pi), nil
}

func mapIntentError(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Code == stripe.ErrorCodeResourceMissing {
		return services.ErrIntentNotFound
	}
	return fmt.Errorf("payment intent: %w", err)
}

func toIntent(pi *stripe.PaymentIntent) *terminal.PaymentIntent {
	currency := string(pi.Currency)
	minor := pi.Amount
	if pi.Status == stripe.PaymentIntentStatusSucceeded && pi.AmountReceived > 0 {
		minor = pi.AmountReceived
	}
	return &terminal.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       money.FromMinorUnits(minor, currency),
		AmountMinor:  minor,
		Currency:     currency,
		Metadata:     pi.Metadata,
	}
}
