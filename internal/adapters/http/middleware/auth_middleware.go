package middleware

import (
	"context"
	"errors"
	"log"
	"strings"

	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/jwt"
	"barstock-pos/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

// TokenResolver turns an access token into the calling user
type TokenResolver interface {
	ValidateAccessToken(accessToken string) (*jwt.Claims, error)
	ResolveActor(ctx context.Context, claims *jwt.Claims) (domain.Actor, error)
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(resolver TokenResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Authorization header first, then cookie
		accessToken := bearerToken(c)
		viaBearer := accessToken != ""
		if !viaBearer {
			accessToken = c.Cookies("access_token")
		}

		// 2. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 3. Validate token
		claims, err := resolver.ValidateAccessToken(accessToken)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 4. Bearer callers name themselves in x-user-id; cookie sessions may omit it
		headerID := strings.TrimSpace(c.Get("x-user-id"))
		if headerID == "" && viaBearer {
			return response.Unauthorized(c, "User header required")
		}
		if headerID != "" && headerID != claims.UserID {
			return response.Unauthorized(c, "User header does not match access token")
		}

		// 5. Current role comes from the store, not the token
		actor, err := resolver.ResolveActor(c.UserContext(), claims)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserInactive):
				return response.Forbidden(c, "User account is inactive")
			case errors.Is(err, services.ErrUserNotFound):
				return response.Unauthorized(c, "User no longer exists")
			default:
				log.Printf("❌ resolve actor %s: %v", claims.UserID, err)
				return response.InternalServerError(c, "Failed to authenticate")
			}
		}

		// 6. Set user info in context
		c.Locals(actorKey, actor)
		c.Locals("userID", actor.UserID)
		c.Locals("username", actor.Username)
		c.Locals("role", string(actor.Role))

		return c.Next()
	}
}

// CurrentActor returns the authenticated caller
func CurrentActor(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(actorKey).(domain.Actor)
	return actor, ok && actor.UserID != ""
}

// CurrentRole returns the caller's role; unknown or missing roles read as employee
func CurrentRole(c *fiber.Ctx) domain.Role {
	role, _ := c.Locals("role").(string)
	return domain.ParseRole(role)
}

// RequirePermission rejects callers whose role lacks key
func RequirePermission(gate domain.Gate, key domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentActor(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !gate.HasPermission(CurrentRole(c), key) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

// RequireRole allows callers at or above min
func RequireRole(min domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentActor(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !CurrentRole(c).AtLeast(min) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

// OwnerOnly allows only the owner role
func OwnerOnly() fiber.Handler {
	return RequireRole(domain.RoleOwner)
}

// ManagerOrAbove allows manager, admin and owner
func ManagerOrAbove() fiber.Handler {
	return RequireRole(domain.RoleManager)
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}
