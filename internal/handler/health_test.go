package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	healthy   = pingFunc(func(context.Context) error { return nil })
	unhealthy = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func TestNewHealthHandler(t *testing.T) {
	t.Run("start time is set to creation time", func(t *testing.T) {
		before := time.Now()
		handler := NewHealthHandler("1.0.0")
		after := time.Now()

		assert.Equal(t, "1.0.0", handler.version)
		assert.False(t, handler.startTime.Before(before))
		assert.False(t, handler.startTime.After(after))
	})
}

func TestHealthHandler_Liveness(t *testing.T) {
	app := fiber.New()
	NewHealthHandler("1.0.0", Check{Name: "store", Pinger: unhealthy}).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "alive", result["status"])
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     []Check
		wantStatus int
		wantReason string
	}{
		{name: "no checks", wantStatus: http.StatusOK},
		{name: "all healthy", checks: []Check{{Name: "store", Pinger: healthy}, {Name: "redis", Pinger: healthy}}, wantStatus: http.StatusOK},
		{name: "first failing named", checks: []Check{{Name: "store", Pinger: healthy}, {Name: "redis", Pinger: unhealthy}}, wantStatus: http.StatusServiceUnavailable, wantReason: "redis unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			NewHealthHandler("1.0.0", tt.checks...).RegisterRoutes(app)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/readyz", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var result map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, result["reason"])
			}
		})
	}
}

func TestHealthHandler_Health(t *testing.T) {
	app := fiber.New()
	NewHealthHandler("2.0.0",
		Check{Name: "store", Pinger: healthy},
		Check{Name: "redis", Pinger: unhealthy},
	).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "2.0.0", status.Version)
	assert.Equal(t, "healthy", status.Checks["store"])
	assert.Equal(t, "unhealthy: connection refused", status.Checks["redis"])
}

func TestHealthHandler_RegisterRoutes(t *testing.T) {
	app := fiber.New()
	NewHealthHandler("1.0.0").RegisterRoutes(app)

	routePaths := make(map[string]bool)
	for _, route := range app.GetRoutes() {
		if route.Method == "GET" {
			routePaths[route.Path] = true
		}
	}

	for _, path := range []string{"/healthz", "/livez", "/readyz", "/version", "/metrics"} {
		assert.True(t, routePaths[path], "Route %s should be registered", path)
	}
}

func TestHealthHandler_Metrics(t *testing.T) {
	app := fiber.New()
	NewHealthHandler("1.0.0").RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}
