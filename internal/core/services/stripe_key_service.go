package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/config"
	"barstock-pos/internal/core/domain"
)

// Stripe key errors
var (
	ErrInvalidSecretKey      = errors.New("secret key must start with sk_ or rk_")
	ErrInvalidPublishableKey = errors.New("publishable key must start with pk_")
	ErrKeyModeMismatch       = errors.New("secret and publishable keys must both be test or both be live")
	ErrNoStoredKey           = errors.New("no stored key for this user")
)

// Key sources reported by Status
const (
	KeySourceUser        = "user"
	KeySourceEnvironment = "environment"
	KeySourceNone        = "none"
)

// StripeKeyService resolves which payment credentials a caller uses:
// their own stored key, else the environment key.
type StripeKeyService struct {
	repo repositories.StripeKeyRepository
	env  config.PaymentsConfig
}

// NewStripeKeyService creates a new stripe key service
func NewStripeKeyService(repo repositories.StripeKeyRepository, env config.PaymentsConfig) *StripeKeyService {
	return &StripeKeyService{repo: repo, env: env}
}

// KeyStatus reports configuration without exposing the secret
type KeyStatus struct {
	Configured     bool   `json:"configured"`
	Source         string `json:"source"`
	PublishableKey string `json:"publishableKey,omitempty"`
	Last4          string `json:"last4,omitempty"`
	Mode           string `json:"mode,omitempty"`
}

// SaveKeyInput stores the caller's own keys
type SaveKeyInput struct {
	SecretKey      string `json:"secretKey"`
	PublishableKey string `json:"publishableKey"`
}

// Status reports the key the caller would use
func (s *StripeKeyService) Status(ctx context.Context, actor domain.Actor) (*KeyStatus, error) {
	key, err := s.repo.Get(ctx, actor.UserID)
	switch {
	case err == nil:
		return statusFor(KeySourceUser, key.SecretKey, key.PublishableKey), nil
	case !isNotFound(err):
		return nil, err
	}
	if s.env.Configured() {
		return statusFor(KeySourceEnvironment, s.env.SecretKey, s.env.PublishableKey), nil
	}
	return &KeyStatus{Source: KeySourceNone}, nil
}

// Save validates and stores the caller's keys
func (s *StripeKeyService) Save(ctx context.Context, actor domain.Actor, input *SaveKeyInput) (*KeyStatus, error) {
	secret := strings.TrimSpace(input.SecretKey)
	publishable := strings.TrimSpace(input.PublishableKey)
	if !strings.HasPrefix(secret, "sk_") && !strings.HasPrefix(secret, "rk_") {
		return nil, ErrInvalidSecretKey
	}
	if publishable != "" {
		if !strings.HasPrefix(publishable, "pk_") {
			return nil, ErrInvalidPublishableKey
		}
		if keyMode(secret) != keyMode(publishable) {
			return nil, ErrKeyModeMismatch
		}
	}

	if err := s.repo.Upsert(ctx, &models.StripeKey{
		UserID:         actor.UserID,
		SecretKey:      secret,
		PublishableKey: publishable,
	}); err != nil {
		return nil, err
	}
	log.Printf("✅ Payment keys saved for %s (%s mode)", actor.Username, keyMode(secret))
	return statusFor(KeySourceUser, secret, publishable), nil
}

// Delete removes the caller's stored keys
func (s *StripeKeyService) Delete(ctx context.Context, actor domain.Actor) error {
	if _, err := s.repo.Get(ctx, actor.UserID); err != nil {
		if isNotFound(err) {
			return ErrNoStoredKey
		}
		return err
	}
	return s.repo.Delete(ctx, actor.UserID)
}

// Resolve returns the secret key the caller's payments use
func (s *StripeKeyService) Resolve(ctx context.Context, userID string) (string, error) {
	key, err := s.repo.Get(ctx, userID)
	if err == nil {
		return key.SecretKey, nil
	}
	if !isNotFound(err) {
		return "", err
	}
	if s.env.Configured() {
		return s.env.SecretKey, nil
	}
	return "", domain.ErrPaymentsNotConfigured
}

func statusFor(source, secret, publishable string) *KeyStatus {
	st := &KeyStatus{
		Configured:     true,
		Source:         source,
		PublishableKey: publishable,
		Mode:           keyMode(secret),
	}
	if len(secret) >= 4 {
		st.Last4 = secret[len(secret)-4:]
	}
	return st
}

func keyMode(key string) string {
	if strings.Contains(key, "_live_") {
		return "live"
	}
	return "test"
}
