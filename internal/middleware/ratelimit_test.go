package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 2, time.Minute)

	assert.True(t, l.Allow("a", now))
	assert.True(t, l.Allow("a", now))
	assert.False(t, l.Allow("a", now), "burst exhausted")
	assert.True(t, l.Allow("b", now), "keys are independent")

	assert.True(t, l.Allow("a", now.Add(time.Second)), "refilled after one second")
}

func TestRateLimiter_EvictsIdleKeys(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1000, 1000, time.Minute)

	l.Allow("idle", start)
	later := start.Add(2 * time.Minute)
	for i := 1; i < evictEvery; i++ {
		l.Allow("busy", later)
	}

	assert.Equal(t, 1, l.Len())
}

func newRateLimitedApp(burst int) *fiber.App {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	app := fiber.New()
	app.Use(NewRateLimitMiddleware(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             burst,
		KeyGenerator:      ClientKey,
		Skip:              HealthSkipper,
		Now:               func() time.Time { return now },
	}).Handler())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})
	return app
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("rejects after burst with classified body", func(t *testing.T) {
		app := newRateLimitedApp(1)

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))

		resp, err = app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "1", resp.Header.Get("Retry-After"))

		body := decodeBody(t, resp)
		assert.Equal(t, "RATE_LIMITED", body["code"])
		assert.Equal(t, "Rate limit exceeded", body["error"])
	})

	t.Run("keys on forwarded client", func(t *testing.T) {
		app := newRateLimitedApp(1)

		for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("X-Forwarded-For", ip+", 192.168.0.1")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode, ip)
		}

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	})

	t.Run("skips health endpoints", func(t *testing.T) {
		app := newRateLimitedApp(1)

		for i := 0; i < 3; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", "/livez", nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
	})
}

func TestRateLimitMiddleware_ForwardedKeysSurviveBufferReuse(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewRateLimitMiddleware(RateLimitConfig{
		RequestsPerSecond: 0.001,
		Burst:             1,
		KeyGenerator:      ClientKey,
		Now:               func() time.Time { return now },
	})
	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})

	clients := []string{"10.0.0.1", "10.9.9.9"}
	for round := 0; round < 5; round++ {
		for _, ip := range clients {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("X-Forwarded-For", ip)
			resp, err := app.Test(req)
			require.NoError(t, err)

			want := http.StatusTooManyRequests
			if round == 0 {
				want = http.StatusOK
			}
			assert.Equal(t, want, resp.StatusCode, "round %d client %s", round, ip)
		}
	}

	assert.Equal(t, 2, m.limiter.Len())
	assert.ElementsMatch(t, clients, m.limiter.Keys())
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		want      string
	}{
		{name: "first forwarded hop", forwarded: "203.0.113.7, 10.0.0.1", want: "203.0.113.7"},
		{name: "single forwarded", forwarded: " 203.0.113.8 ", want: "203.0.113.8"},
		{name: "falls back to remote ip", forwarded: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var got string
			app.Get("/", func(c *fiber.Ctx) error {
				got = ClientKey(c)
				return nil
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			_, err := app.Test(req)
			require.NoError(t, err)
			if tt.want == "" {
				assert.NotEmpty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
