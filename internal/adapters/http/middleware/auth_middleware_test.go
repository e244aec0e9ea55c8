package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	users map[string]domain.Actor
}

func (f *fakeResolver) ValidateAccessToken(token string) (*jwt.Claims, error) {
	switch token {
	case "expired":
		return nil, jwt.ErrTokenExpired
	case "garbage":
		return nil, errors.New("malformed")
	}
	return &jwt.Claims{UserID: token}, nil
}

func (f *fakeResolver) ResolveActor(_ context.Context, claims *jwt.Claims) (domain.Actor, error) {
	if claims.UserID == "u-inactive" {
		return domain.Actor{}, services.ErrUserInactive
	}
	actor, ok := f.users[claims.UserID]
	if !ok {
		return domain.Actor{}, services.ErrUserNotFound
	}
	return actor, nil
}

func newTestApp() *fiber.App {
	resolver := &fakeResolver{users: map[string]domain.Actor{
		"u-owner":    {UserID: "u-owner", Username: "olivia", Role: domain.RoleOwner},
		"u-manager":  {UserID: "u-manager", Username: "maya", Role: domain.RoleManager},
		"u-employee": {UserID: "u-employee", Username: "eli", Role: domain.RoleEmployee},
	}}
	gate := domain.NewGate(true)

	app := fiber.New(fiber.Config{ErrorHandler: CustomErrorHandler})
	api := app.Group("/api", AuthMiddleware(resolver))
	api.Get("/whoami", func(c *fiber.Ctx) error {
		actor, _ := CurrentActor(c)
		return c.SendString(actor.Username + ":" + string(CurrentRole(c)))
	})
	api.Delete("/products/:id", RequirePermission(gate, domain.CanDeleteProducts), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	api.Post("/products/:id/adjust", RequirePermission(gate, domain.CanAdjustQuantity), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	api.Delete("/account", OwnerOnly(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	api.Post("/stripe/confirm-payment", NoCacheHeaders(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, token string, headers map[string]string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("x-user-id", token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthMiddleware_Tokens(t *testing.T) {
	app := newTestApp()

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/api/whoami", "", nil))
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/api/whoami", "expired", nil))
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/api/whoami", "garbage", nil))
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/api/whoami", "u-ghost", nil))
	assert.Equal(t, fiber.StatusForbidden, do(t, app, "GET", "/api/whoami", "u-inactive", nil))
	assert.Equal(t, fiber.StatusOK, do(t, app, "GET", "/api/whoami", "u-owner", nil))
}

func TestAuthMiddleware_Cookie(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("GET", "/api/whoami", nil)
	req.Header.Set("Cookie", "access_token=u-manager")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_UserHeaderMustMatch(t *testing.T) {
	app := newTestApp()

	assert.Equal(t, fiber.StatusOK,
		do(t, app, "GET", "/api/whoami", "u-owner", map[string]string{"x-user-id": "u-owner"}))
	assert.Equal(t, fiber.StatusUnauthorized,
		do(t, app, "GET", "/api/whoami", "u-owner", map[string]string{"x-user-id": "u-manager"}))
}

func TestAuthMiddleware_BearerNeedsUserHeader(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("GET", "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer u-owner")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/whoami", nil)
	req.Header.Set("Cookie", "access_token=u-owner")
	req.Header.Set("x-user-id", "u-manager")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "a cookie session still cannot claim another user")
}

func TestRequirePermission(t *testing.T) {
	app := newTestApp()

	assert.Equal(t, fiber.StatusNoContent, do(t, app, "DELETE", "/api/products/p1", "u-owner", nil))
	assert.Equal(t, fiber.StatusForbidden, do(t, app, "DELETE", "/api/products/p1", "u-manager", nil))
	assert.Equal(t, fiber.StatusForbidden, do(t, app, "DELETE", "/api/products/p1", "u-employee", nil))
	assert.Equal(t, fiber.StatusOK, do(t, app, "POST", "/api/products/p1/adjust", "u-employee", nil))
}

func TestOwnerOnly(t *testing.T) {
	app := newTestApp()

	assert.Equal(t, fiber.StatusNoContent, do(t, app, "DELETE", "/api/account", "u-owner", nil))
	assert.Equal(t, fiber.StatusForbidden, do(t, app, "DELETE", "/api/account", "u-manager", nil))
}

func TestNoCacheHeaders(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/stripe/confirm-payment", nil)
	req.Header.Set("Authorization", "Bearer u-owner")
	req.Header.Set("x-user-id", "u-owner")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
}

func TestCurrentRole_DefaultsToEmployee(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals("role", "superuser")
		return c.SendString(string(CurrentRole(c)))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	body := make([]byte, 16)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "employee", string(body[:n]))
}

func TestCacheControl(t *testing.T) {
	app := fiber.New()
	app.Get("/static", StaticDataCache(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/static", nil))
	require.NoError(t, err)
	assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))
}
