package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

func named(name string) Handler {
	return func(context.Context, *Call) (*domain.Response, error) {
		return domain.NewJSONResponse(200, name), nil
	}
}

func handlerName(t *testing.T, m *Match) string {
	t.Helper()
	resp, err := m.Route.Handler(context.Background(), &Call{})
	require.NoError(t, err)
	return resp.Body.(string)
}

func newTestRouter() *Router {
	r := New()
	r.Get("/api/users", AuthAny, named("list"))
	r.Post("/api/users", AuthAdmin, named("create"))
	r.Get("/api/users/{id}", AuthNone, named("get"))
	r.Delete("/api/users/{id}", AuthAdmin, named("delete"))
	r.Get("/api/users/admins/{id}", AuthAdmin, named("admin"))
	r.Get("/api/health", AuthNone, named("health"))
	return r
}

func TestRouter_Match(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		method string
		path   string
		want   string
		param  string
	}{
		{"GET", "/api/users", "list", ""},
		{"post", "/api/users", "create", ""},
		{"GET", "/api/users/42", "get", "42"},
		{"DELETE", "/api/users/42", "delete", "42"},
		{"GET", "/api/users/admins/7", "admin", "7"},
		{"GET", "/api/health", "health", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			m, err := r.Match(tt.method, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, handlerName(t, m))
			if tt.param != "" {
				assert.Equal(t, tt.param, m.Params["id"])
			}
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"unknown path", "GET", "/api/nope"},
		{"exact path wrong method", "PUT", "/api/users"},
		{"prefix path wrong method", "POST", "/api/users/1"},
		{"prefix without remainder", "GET", "/api/users/"},
		{"root", "GET", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := r.Match(tt.method, tt.path)
			assert.Nil(t, m)
			c := apperrors.Classify(err)
			assert.Equal(t, 404, c.Status)
			assert.Equal(t, "Not found: "+tt.path, c.Message)
		})
	}
}

func TestRouter_ExactBeatsPrefix(t *testing.T) {
	r := New()
	r.Get("/api/users/{id}", AuthNone, named("prefix"))
	r.Get("/api/users/me", AuthAny, named("exact"))

	m, err := r.Match("GET", "/api/users/me")
	require.NoError(t, err)
	assert.Equal(t, "exact", handlerName(t, m))
	assert.Equal(t, AuthAny, m.Route.Auth)
}

func TestAuthorize(t *testing.T) {
	user := domain.RegularUserPrincipal()
	admin := domain.AdminPrincipal("admin")

	assert.NoError(t, Authorize(AuthNone, nil))
	assert.NoError(t, Authorize(AuthAny, user))
	assert.NoError(t, Authorize(AuthAdmin, admin))

	assert.Equal(t, apperrors.KindAuthenticationRequired, apperrors.KindOf(Authorize(AuthAny, nil)))
	assert.Equal(t, apperrors.KindAuthenticationRequired, apperrors.KindOf(Authorize(AuthAdmin, nil)))

	err := Authorize(AuthAdmin, user)
	assert.Equal(t, apperrors.KindPermissionDenied, apperrors.KindOf(err))
	assert.Equal(t, "Admin access required", apperrors.Classify(err).Message)
}

func TestAuthRequirement_String(t *testing.T) {
	assert.Equal(t, "none", AuthNone.String())
	assert.Equal(t, "any-authenticated", AuthAny.String())
	assert.Equal(t, "admin-only", AuthAdmin.String())
}
