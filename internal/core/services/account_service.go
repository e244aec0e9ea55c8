package services

import (
	"context"
	"errors"
	"log"

	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"
)

// PurgeConfirmation must be sent verbatim to delete the account
const PurgeConfirmation = "DELETE"

// ErrPurgeNotConfirmed is returned when the confirmation text is wrong
var ErrPurgeNotConfirmed = errors.New(`type "DELETE" to confirm account deletion`)

// AccountService deletes the business and everything in it
type AccountService struct {
	repo repositories.AccountRepository
}

// NewAccountService creates a new account service
func NewAccountService(repo repositories.AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

// Purge removes all users and business data, the audit log included.
// Only the owner may do this.
func (s *AccountService) Purge(ctx context.Context, actor domain.Actor, confirm string) error {
	if actor.Role != domain.RoleOwner {
		return domain.ErrForbidden
	}
	if confirm != PurgeConfirmation {
		return ErrPurgeNotConfirmed
	}
	if err := s.repo.PurgeAll(ctx); err != nil {
		log.Printf("❌ Account purge failed: %v", err)
		return err
	}
	log.Printf("🛑 Account purged by %s (%s)", actor.Username, actor.UserID)
	return nil
}
