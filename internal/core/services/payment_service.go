package services

import (
	"context"
	"errors"
	"strings"

	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/terminal"
	"barstock-pos/internal/pkg/money"

	"github.com/shopspring/decimal"
)

// Payment errors
var (
	ErrIntentForbidden  = errors.New("payment intent not found for this user")
	ErrCurrencyMismatch = errors.New("currency does not match the configured payment currency")
	ErrAmountPrecision  = errors.New("amount has more decimal places than the currency allows")
	ErrMissingIntentID  = errors.New("paymentIntentId is required")
)

// OwnerMetadataKey records which user created an intent
const OwnerMetadataKey = "userId"

const maxClientMetadata = 20

// PaymentService is the confirming server behind the payment endpoints.
// Every intent is tagged with its creator and only that user may read,
// confirm or cancel it.
type PaymentService struct {
	keys     *StripeKeyService
	provider PaymentProvider
	currency string
}

// NewPaymentService creates a new payment service
func NewPaymentService(keys *StripeKeyService, provider PaymentProvider, currency string) *PaymentService {
	return &PaymentService{keys: keys, provider: provider, currency: strings.ToLower(currency)}
}

// CreateIntentInput is the create-payment-intent body
type CreateIntentInput struct {
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// CreatedIntent is what the client needs to collect payment
type CreatedIntent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// Currency is the configured payment currency
func (s *PaymentService) Currency() string {
	return s.currency
}

// ConnectionToken issues a reader session token for the caller's credentials
func (s *PaymentService) ConnectionToken(ctx context.Context, actor domain.Actor) (string, error) {
	gw, err := s.gateway(ctx, actor)
	if err != nil {
		return "", err
	}
	return gw.ConnectionToken(ctx)
}

// CreatePaymentIntent validates the amount before any vendor call, converts
// it to minor units and tags the intent with the caller.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, actor domain.Actor, input *CreateIntentInput) (*CreatedIntent, error) {
	minor, err := s.validateAmount(input.Amount, input.Currency)
	if err != nil {
		return nil, err
	}
	gw, err := s.gateway(ctx, actor)
	if err != nil {
		return nil, err
	}
	pi, err := gw.CreateIntent(ctx, minor, s.currency, ownedMetadata(input.Metadata, actor.UserID))
	if err != nil {
		return nil, err
	}
	return &CreatedIntent{ClientSecret: pi.ClientSecret, PaymentIntentID: pi.ID}, nil
}

// ConfirmPayment reports the intent's settlement status
func (s *PaymentService) ConfirmPayment(ctx context.Context, actor domain.Actor, paymentIntentID string) (*terminal.PaymentIntent, error) {
	gw, err := s.gateway(ctx, actor)
	if err != nil {
		return nil, err
	}
	return confirmOwned(ctx, gw, actor.UserID, paymentIntentID)
}

// CancelPayment voids the caller's intent
func (s *PaymentService) CancelPayment(ctx context.Context, actor domain.Actor, paymentIntentID string) (*terminal.PaymentIntent, error) {
	gw, err := s.gateway(ctx, actor)
	if err != nil {
		return nil, err
	}
	return cancelOwned(ctx, gw, actor.UserID, paymentIntentID)
}

// ServerFor returns the caller's confirming server and reader for a
// checkout session.
func (s *PaymentService) ServerFor(ctx context.Context, actor domain.Actor) (terminal.PaymentServer, terminal.Reader, error) {
	secret, err := s.keys.Resolve(ctx, actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	server := &ownedServer{
		gateway:  s.provider.Gateway(secret),
		currency: s.currency,
		owner:    actor.UserID,
	}
	return server, s.provider.Reader(secret), nil
}

func (s *PaymentService) gateway(ctx context.Context, actor domain.Actor) (PaymentGateway, error) {
	secret, err := s.keys.Resolve(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.provider.Gateway(secret), nil
}

func (s *PaymentService) validateAmount(amount decimal.Decimal, currency string) (int64, error) {
	if c := strings.ToLower(strings.TrimSpace(currency)); c != "" && c != s.currency {
		return 0, ErrCurrencyMismatch
	}
	minor, err := money.ToMinorUnits(amount, s.currency)
	switch {
	case errors.Is(err, money.ErrNonPositiveAmount):
		return 0, terminal.ErrInvalidAmount
	case errors.Is(err, money.ErrTooManyDecimals):
		return 0, ErrAmountPrecision
	}
	return minor, err
}

func ownedMetadata(client map[string]string, owner string) map[string]string {
	md := make(map[string]string, len(client)+1)
	for k, v := range client {
		if len(md) >= maxClientMetadata {
			break
		}
		if k == OwnerMetadataKey {
			continue
		}
		md[k] = v
	}
	md[OwnerMetadataKey] = owner
	return md
}

// ownedIntent fetches an intent and hides it from everyone but its creator.
// Unknown and foreign intents look the same to the caller.
func ownedIntent(ctx context.Context, gw PaymentGateway, owner, id string) (*terminal.PaymentIntent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingIntentID
	}
	pi, err := gw.GetIntent(ctx, id)
	if err != nil {
		if errors.Is(err, ErrIntentNotFound) {
			return nil, ErrIntentForbidden
		}
		return nil, err
	}
	if pi.Metadata[OwnerMetadataKey] != owner {
		return nil, ErrIntentForbidden
	}
	return pi, nil
}

func confirmOwned(ctx context.Context, gw PaymentGateway, owner, id string) (*terminal.PaymentIntent, error) {
	return ownedIntent(ctx, gw, owner, id)
}

func cancelOwned(ctx context.Context, gw PaymentGateway, owner, id string) (*terminal.PaymentIntent, error) {
	if _, err := ownedIntent(ctx, gw, owner, id); err != nil {
		return nil, err
	}
	return gw.CancelIntent(ctx, id)
}

// ownedServer adapts a gateway to the orchestrator's confirming server
type ownedServer struct {
	gateway  PaymentGateway
	currency string
	owner    string
}

func (o *ownedServer) ConnectionToken(ctx context.Context) (string, error) {
	return o.gateway.ConnectionToken(ctx)
}

func (o *ownedServer) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (*terminal.PaymentIntent, error) {
	minor, err := money.ToMinorUnits(amount, o.currency)
	if err != nil {
		return nil, terminal.ErrInvalidAmount
	}
	return o.gateway.CreateIntent(ctx, minor, o.currency, ownedMetadata(metadata, o.owner))
}

func (o *ownedServer) ConfirmPayment(ctx context.Context, id string) (*terminal.PaymentIntent, error) {
	return confirmOwned(ctx, o.gateway, o.owner, id)
}

func (o *ownedServer) CancelPayment(ctx context.Context, id string) (*terminal.PaymentIntent, error) {
	return cancelOwned(ctx, o.gateway, o.owner, id)
}
