package stripe

import (
	"barstock-pos/internal/config"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/core/terminal"

	stripe "github.com/stripe/stripe-go/v76"
)

// Provider builds Stripe gateways and readers per secret key
type Provider struct {
	cfg      config.PaymentsConfig
	backends *stripe.Backends
}

// NewProvider uses the live Stripe API
func NewProvider(cfg config.PaymentsConfig) *Provider {
	return &Provider{cfg: cfg}
}

// NewProviderWithURL points every client at url (tests, stripe-mock)
func NewProviderWithURL(cfg config.PaymentsConfig, url string) *Provider {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(url),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &Provider{
		cfg:      cfg,
		backends: &stripe.Backends{API: backend, Connect: backend, Uploads: backend},
	}
}

func (p *Provider) Gateway(secretKey string) services.PaymentGateway {
	return NewGateway(secretKey, p.backends)
}

func (p *Provider) Reader(secretKey string) terminal.Reader {
	return NewReader(secretKey, p.backends, p.cfg.ReaderPollInterval, p.cfg.ReaderActionTimeout)
}
