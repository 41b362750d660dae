package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/repository/memory"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	token, exp, err := tm.GenerateToken("user-1", domain.RoleDriver)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, domain.RoleDriver, claims.Role)
}

func TestTokenRejections(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	token, _, err := tm.GenerateToken("user-1", domain.RoleAdmin)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenManager("other", 1).ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenManager("secret", 1)
		later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err := later.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		forged, _, err := tm.GenerateToken("user-1", domain.Role("ROOT"))
		require.NoError(t, err)
		_, err = tm.ParseToken(forged)
		assert.Error(t, err)
	})
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("long enough"))

	hash, err := HashPassword("long enough", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "long enough"))
	assert.Error(t, ComparePassword(hash, "wrong one"))
}

func newTestApp(t *testing.T) (*fiber.App, *TokenManager, map[string]string) {
	t.Helper()
	repos := memory.NewRepositories()
	tm := NewTokenManager("secret", 10)
	ids := map[string]string{}
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleDriver, domain.RoleFaculty} {
		u := &domain.User{Name: string(role), Email: string(role) + "@example.edu", Role: role, Active: true}
		require.NoError(t, repos.Users.Create(context.Background(), u))
		ids[string(role)] = u.ID
	}
	inactive := &domain.User{Name: "gone", Email: "gone@example.edu", Role: domain.RoleFaculty}
	require.NoError(t, repos.Users.Create(context.Background(), inactive))
	ids["INACTIVE"] = inactive.ID

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	mw := NewAuthMiddleware(tm, repos.Users)
	app.Get("/me", mw.Handle, RequireAuthenticated(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.ID())
	})
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })
	app.Get("/staff", mw.Handle, RequireRole(domain.RoleAdmin, domain.RoleDriver), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app, tm, ids
}

func TestAuthMiddlewareAndGuards(t *testing.T) {
	app, tm, ids := newTestApp(t)
	bearerFor := func(id string, role domain.Role) string {
		token, _, err := tm.GenerateToken(id, role)
		require.NoError(t, err)
		return "Bearer " + token
	}
	bearer := func(role domain.Role) string { return bearerFor(ids[string(role)], role) }

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"bad scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc", http.StatusUnauthorized},
		{"faculty authenticated", "/me", bearer(domain.RoleFaculty), http.StatusOK},
		{"inactive account", "/me", bearerFor(ids["INACTIVE"], domain.RoleFaculty), http.StatusUnauthorized},
		{"faculty not admin", "/admin", bearer(domain.RoleFaculty), http.StatusForbidden},
		{"admin allowed", "/admin", bearer(domain.RoleAdmin), http.StatusNoContent},
		{"driver allowed on staff", "/staff", bearer(domain.RoleDriver), http.StatusNoContent},
		{"faculty denied on staff", "/staff", bearer(domain.RoleFaculty), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
