package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

// MockResolver mocks the principal resolver for testing
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, header string) (*domain.Principal, error) {
	args := m.Called(ctx, header)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func newAuthApp(resolver PrincipalResolver, chain ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append(chain, func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p == nil {
			return c.SendString("anonymous")
		}
		return c.SendString(p.Username)
	})
	app.Get("/test", handlers...)
	return app
}

func TestOptionalAuth(t *testing.T) {
	t.Run("anonymous passes through", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("Resolve", mock.Anything, "").Return(nil, nil)
		app := newAuthApp(resolver, NewAuthMiddleware(resolver).OptionalAuth())

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "anonymous", string(raw))
	})

	t.Run("stores resolved principal", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("Resolve", mock.Anything, "Bearer valid-token-123").Return(domain.RegularUserPrincipal(), nil)
		app := newAuthApp(resolver, NewAuthMiddleware(resolver).OptionalAuth())

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer valid-token-123")
		resp, err := app.Test(req)
		require.NoError(t, err)

		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "testuser", string(raw))
	})

	t.Run("rejected header is classified", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("Resolve", mock.Anything, "Bearer short").Return(nil, apperrors.InvalidToken())
		app := newAuthApp(resolver, NewAuthMiddleware(resolver).OptionalAuth())

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer short")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "INVALID_TOKEN", body["code"])
	})
}

func TestRequireAuth(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, "").Return(nil, nil)
	app := newAuthApp(resolver, NewAuthMiddleware(resolver).RequireAuth())

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
	assert.Equal(t, "Authentication required", body["error"])
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name       string
		principal  *domain.Principal
		wantStatus int
	}{
		{name: "anonymous", principal: nil, wantStatus: http.StatusUnauthorized},
		{name: "regular user", principal: domain.RegularUserPrincipal(), wantStatus: http.StatusForbidden},
		{name: "admin", principal: domain.AdminPrincipal("admin"), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockResolver)
			resolver.On("Resolve", mock.Anything, mock.Anything).Return(tt.principal, nil)
			m := NewAuthMiddleware(resolver)
			app := newAuthApp(resolver, m.OptionalAuth(), RequirePermission(domain.PermissionBatchOperations))

			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
