package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaygate/relaygate/internal/pkg/id"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		incoming  string
		wantValue string
		wantCalls int
	}{
		{
			name:   "generates a UUID when absent",
			header: "X-Request-ID",
		},
		{
			name:      "propagates the client value",
			header:    "X-Request-ID",
			incoming:  "existing-request-id-12345",
			wantValue: "existing-request-id-12345",
		},
		{
			name:      "custom header and generator",
			header:    "X-Correlation-ID",
			wantValue: "generated-id",
			wantCalls: 1,
		},
		{
			name:      "generator untouched when the client sent one",
			header:    "X-Correlation-ID",
			incoming:  "client-id",
			wantValue: "client-id",
			wantCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			var configs []RequestIDConfig
			if tt.header != fiber.HeaderXRequestID {
				configs = append(configs, RequestIDConfig{
					Header: tt.header,
					Generator: func() string {
						calls++
						return "generated-id"
					},
				})
			}

			var local string
			app := fiber.New()
			app.Use(RequestID(configs...))
			app.Get("/test", func(c *fiber.Ctx) error {
				local = GetRequestID(c)
				return c.SendStatus(200)
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.incoming != "" {
				req.Header.Set(tt.header, tt.incoming)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			got := resp.Header.Get(tt.header)
			assert.Equal(t, got, local)
			if tt.wantValue == "" {
				assert.True(t, id.ValidateUUID(got), got)
			} else {
				assert.Equal(t, tt.wantValue, got)
			}
			if len(configs) > 0 {
				assert.Equal(t, tt.wantCalls, calls)
			}
		})
	}
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	var got string
	app := fiber.New()
	app.Get("/test", func(c *fiber.Ctx) error {
		got = GetRequestID(c)
		return c.SendStatus(200)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}
