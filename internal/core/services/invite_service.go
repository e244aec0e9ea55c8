package services

import (
	"context"
	"errors"
	"log"
	"time"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/pkg/invitecode"

	"gorm.io/gorm"
)

// Invite errors
var (
	ErrInviteInvalid     = errors.New("invite code is invalid, expired or already used")
	ErrInvalidInviteRole = errors.New("invite role must be admin, manager or employee and not above your own")
	ErrInvalidInviteTTL  = errors.New("invite lifetime cannot be negative")
	ErrInviteNotFound    = errors.New("invite not found or already used")
)

const maxCodeAttempts = 5

// InviteService issues and redeems one-time registration codes
type InviteService struct {
	repo       repositories.InviteRepository
	gate       domain.Gate
	defaultTTL int
	now        func() time.Time
}

// NewInviteService creates a new invite service
func NewInviteService(repo repositories.InviteRepository, gate domain.Gate, defaultTTLHours int) *InviteService {
	return &InviteService{
		repo:       repo,
		gate:       gate,
		defaultTTL: defaultTTLHours,
		now:        time.Now,
	}
}

// InviteInfo is what the registration form may learn about a code
type InviteInfo struct {
	Code      string      `json:"code"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Create issues a code granting role. ttlHours nil means the configured default;
// 0 yields a code that is already unusable.
func (s *InviteService) Create(ctx context.Context, actor domain.Actor, role domain.Role, ttlHours *int) (*models.Invite, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanManageUsers) {
		return nil, domain.ErrForbidden
	}
	if !role.Invitable() || !actor.Role.AtLeast(role) {
		return nil, ErrInvalidInviteRole
	}
	ttl := s.defaultTTL
	if ttlHours != nil {
		ttl = *ttlHours
	}
	if ttl < 0 {
		return nil, ErrInvalidInviteTTL
	}

	now := s.now()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := invitecode.Generate()
		if err != nil {
			return nil, err
		}
		invite := &models.Invite{
			Code:      code,
			Role:      string(role),
			CreatedBy: actor.UserID,
			CreatedAt: now,
			ExpiresAt: now.Add(time.Duration(ttl) * time.Hour),
		}
		err = s.repo.Create(ctx, invite)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Printf("✅ Invite created by %s for role %s (expires %s)", actor.Username, role, invite.ExpiresAt.Format(time.RFC3339))
		return invite, nil
	}
	return nil, errors.New("could not allocate a unique invite code")
}

// Consume redeems code for userID and returns the granted role.
// Redemption is a single conditional write, so a code is used at most once.
func (s *InviteService) Consume(ctx context.Context, code, userID string) (domain.Role, error) {
	code = invitecode.Normalize(code)
	if !invitecode.Valid(code) {
		return "", ErrInviteInvalid
	}
	ok, err := s.repo.Consume(ctx, code, userID, s.now())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInviteInvalid
	}
	invite, err := s.repo.Get(ctx, code)
	if err != nil {
		return "", err
	}
	return domain.ParseRole(invite.Role), nil
}

// Release returns a code redeemed by userID to the pool when the account it
// was redeemed for could not be created
func (s *InviteService) Release(ctx context.Context, code, userID string) error {
	ok, err := s.repo.Release(ctx, invitecode.Normalize(code), userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInviteNotFound
	}
	return nil
}

// Validate checks a code without redeeming it
func (s *InviteService) Validate(ctx context.Context, code string) (*InviteInfo, error) {
	code = invitecode.Normalize(code)
	if !invitecode.Valid(code) {
		return nil, ErrInviteInvalid
	}
	invite, err := s.repo.Get(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInviteInvalid
		}
		return nil, err
	}
	if !invite.Usable(s.now()) {
		return nil, ErrInviteInvalid
	}
	return &InviteInfo{Code: invite.Code, Role: domain.ParseRole(invite.Role), ExpiresAt: invite.ExpiresAt}, nil
}

// List returns issued invites, newest first
func (s *InviteService) List(ctx context.Context, actor domain.Actor, offset, limit int) ([]*models.Invite, int64, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanManageUsers) {
		return nil, 0, domain.ErrForbidden
	}
	return s.repo.List(ctx, offset, limit)
}

// Revoke deletes a code that has not been redeemed
func (s *InviteService) Revoke(ctx context.Context, actor domain.Actor, code string) error {
	if !s.gate.HasPermission(actor.Role, domain.CanManageUsers) {
		return domain.ErrForbidden
	}
	ok, err := s.repo.DeleteUnused(ctx, invitecode.Normalize(code))
	if err != nil {
		return err
	}
	if !ok {
		return ErrInviteNotFound
	}
	return nil
}
