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
	"barstock-pos/internal/pkg/jwt"
	"barstock-pos/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("username or email already registered")
	ErrInviteRequired     = errors.New("an invite code is required to register")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrMissingFields      = errors.New("username, email and password are required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUserInactive       = errors.New("user account is inactive")
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	invites          *InviteService
	gate             domain.Gate
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	invites *InviteService,
	gate domain.Gate,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		invites:          invites,
		gate:             gate,
		cfg:              cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	InviteCode string `json:"inviteCode"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	Permissions  domain.PermissionSet `json:"permissions"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// MeResponse is the caller's profile plus what the caller may do
type MeResponse struct {
	User        *models.UserResponse `json:"user"`
	Permissions domain.PermissionSet `json:"permissions"`
}

// Register creates an account. The first account ever created becomes the
// owner without an invite; every later one must redeem an invite code.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}
	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}

	// 1. Uniqueness
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}
	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	// 2. Hash password
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: input.Username,
		Email:    input.Email,
		Password: hashedPassword,
		IsActive: true,
	}

	// 3. Bootstrap owner or invite redemption
	if strings.TrimSpace(input.InviteCode) == "" {
		user.Role = string(domain.RoleOwner)
		created, err := s.userRepo.CreateFirst(ctx, user)
		if err != nil {
			return nil, err
		}
		if !created {
			return nil, ErrInviteRequired
		}
		log.Printf("✅ Owner account bootstrapped: %s", user.Username)
	} else {
		role, err := s.invites.Consume(ctx, input.InviteCode, user.ID)
		if err != nil {
			return nil, err
		}
		user.Role = string(role)
		if err := s.userRepo.Create(ctx, user); err != nil {
			if rerr := s.invites.Release(ctx, input.InviteCode, user.ID); rerr != nil {
				log.Printf("❌ Invite %s consumed but user creation failed and the code could not be released: %v", input.InviteCode, rerr)
			} else {
				log.Printf("⚠️ User creation failed, invite %s released: %v", input.InviteCode, err)
			}
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrUserAlreadyExists
			}
			return nil, err
		}
		log.Printf("✅ User registered: %s (%s)", user.Username, user.Role)
	}

	return s.issue(ctx, user)
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	log.Printf("✅ User logged in: %s", user.Username)
	return s.issue(ctx, user)
}

// RefreshToken rotates the refresh token and issues a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// Token rotation
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	return s.issue(ctx, user)
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return err
	}
	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}
	log.Printf("✅ All sessions revoked for user %s", userID)
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// ResolveActor loads the caller's current role from the store, so role
// changes and deactivation apply without waiting for the token to expire.
func (s *AuthService) ResolveActor(ctx context.Context, claims *jwt.Claims) (domain.Actor, error) {
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return domain.Actor{}, ErrUserNotFound
		}
		return domain.Actor{}, err
	}
	if !user.IsActive {
		return domain.Actor{}, ErrUserInactive
	}
	return domain.Actor{
		UserID:   user.ID,
		Username: user.Username,
		Role:     domain.ParseRole(user.Role),
	}, nil
}

// Me returns the caller's profile and permission set
func (s *AuthService) Me(ctx context.Context, userID string) (*MeResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &MeResponse{
		User:        user.ToResponse(),
		Permissions: s.gate.PermissionsFor(domain.ParseRole(user.Role)),
	}, nil
}

// PurgeExpiredTokens removes expired refresh tokens (cleanup job)
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx)
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:         user.ToResponse(),
		Permissions:  s.gate.PermissionsFor(domain.ParseRole(user.Role)),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User) (*domain.TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.Username,
		user.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		uuid.NewString(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token hash in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID, refreshToken string) error {
	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	return s.refreshTokenRepo.Create(ctx, token)
}
