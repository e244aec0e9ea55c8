package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/adapters/persistence/repositories"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/pkg/password"
)

// User service errors
var (
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrOldPasswordWrong    = errors.New("old password is incorrect")
	ErrCannotDeleteSelf    = errors.New("cannot delete your own account")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
	ErrInvalidRole         = errors.New("invalid role")
	ErrRoleAboveOwn        = errors.New("cannot manage a user or grant a role above your own")
)

// UserService handles user management business logic
type UserService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	gate             domain.Gate
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	gate domain.Gate,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		gate:             gate,
	}
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users []*models.UserResponse `json:"users"`
	Total int64                  `json:"total"`
}

// UpdateUserByAdminInput represents update user input (for admin)
type UpdateUserByAdminInput struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Email *string `json:"email"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, actor domain.Actor, offset, limit int) (*ListUsersOutput, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanManageUsers) {
		return nil, domain.ErrForbidden
	}

	users, total, err := s.userRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*models.UserResponse, len(users))
	for i, user := range users {
		out[i] = user.ToResponse()
	}
	return &ListUsersOutput{Users: out, Total: total}, nil
}

// GetUser gets a user by ID
func (s *UserService) GetUser(ctx context.Context, actor domain.Actor, id string) (*models.UserResponse, error) {
	if actor.UserID != id && !s.gate.HasPermission(actor.Role, domain.CanManageUsers) {
		return nil, domain.ErrForbidden
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateUserByAdmin changes another user's role or active flag
func (s *UserService) UpdateUserByAdmin(ctx context.Context, actor domain.Actor, id string, input *UpdateUserByAdminInput) (*models.UserResponse, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanManageUsers) {
		return nil, domain.ErrForbidden
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Prevent changing own role
	if id == actor.UserID && input.Role != nil {
		return nil, ErrCannotChangeOwnRole
	}
	// An admin cannot touch an owner
	if !actor.Role.AtLeast(domain.ParseRole(user.Role)) {
		return nil, ErrRoleAboveOwn
	}

	revoke := false
	if input.Role != nil {
		role := domain.Role(strings.ToLower(strings.TrimSpace(*input.Role)))
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
		if !actor.Role.AtLeast(role) {
			return nil, ErrRoleAboveOwn
		}
		revoke = revoke || string(role) != user.Role
		user.Role = string(role)
	}

	if input.IsActive != nil {
		if id == actor.UserID && !*input.IsActive {
			return nil, ErrCannotDeleteSelf
		}
		revoke = revoke || (user.IsActive && !*input.IsActive)
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if revoke {
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
			log.Printf("⚠️ Failed to revoke sessions for %s: %v", user.Username, err)
		}
	}
	log.Printf("✅ User %s updated by %s (role %s, active %t)", user.Username, actor.Username, user.Role, user.IsActive)
	return user.ToResponse(), nil
}

// DeleteUser deletes a user (soft delete)
func (s *UserService) DeleteUser(ctx context.Context, actor domain.Actor, id string) error {
	if !s.gate.HasPermission(actor.Role, domain.CanManageUsers) {
		return domain.ErrForbidden
	}
	if id == actor.UserID {
		return ErrCannotDeleteSelf
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Role.AtLeast(domain.ParseRole(user.Role)) {
		return ErrRoleAboveOwn
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, id); err != nil {
		log.Printf("⚠️ User %s deleted but sessions were not revoked: %v", id, err)
	}
	return nil
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, ErrMissingFields
		}
		if email != user.Email {
			exists, err := s.userRepo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrEmailAlreadyExists
			}
			user.Email = email
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// ChangePassword changes the caller's password and signs out every session
func (s *UserService) ChangePassword(ctx context.Context, userID string, input *ChangePasswordInput) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}
	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}

	hashedPassword, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	return s.refreshTokenRepo.RevokeAllByUserID(ctx, userID)
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
