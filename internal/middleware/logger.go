package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LoggerConfig configures the logger middleware
type LoggerConfig struct {
	// Logger instance
	Logger *zap.Logger
	// Skip function
	Skip func(*fiber.Ctx) bool
	// IncludeHeaders logs request headers, with Redact values masked
	IncludeHeaders bool
	// Redact lists header names whose values are never logged
	Redact []string
}

// DefaultLoggerConfig returns default logger config
func DefaultLoggerConfig(logger *zap.Logger) LoggerConfig {
	return LoggerConfig{
		Logger: logger,
		Skip:   HealthSkipper,
		Redact: []string{fiber.HeaderAuthorization, fiber.HeaderCookie, fiber.HeaderProxyAuthorization},
	}
}

// LoggerMiddleware creates a request logging middleware
type LoggerMiddleware struct {
	config LoggerConfig
}

// NewLoggerMiddleware creates a new logger middleware
func NewLoggerMiddleware(config LoggerConfig) *LoggerMiddleware {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &LoggerMiddleware{
		config: config,
	}
}

// Handler returns the logger handler
func (m *LoggerMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("auth", AuthScheme(c.Get(fiber.HeaderAuthorization))),
			zap.Int("bytes_in", len(c.Request().Body())),
			zap.String("client", ClientKey(c)),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}

		if principal := GetPrincipal(c); principal != nil {
			fields = append(fields, zap.String("username", principal.Username))
		}

		if m.config.IncludeHeaders {
			headers := make(map[string]string)
			c.Request().Header.VisitAll(func(key, value []byte) {
				k := string(key)
				if m.redacted(k) {
					headers[k] = "[redacted]"
					return
				}
				headers[k] = string(value)
			})
			fields = append(fields, zap.Any("headers", headers))
		}

		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch {
		case status >= 500:
			m.config.Logger.Error("http request", fields...)
		case status >= 400:
			m.config.Logger.Warn("http request", fields...)
		default:
			m.config.Logger.Info("http request", fields...)
		}

		return err
	}
}

func (m *LoggerMiddleware) redacted(header string) bool {
	for _, r := range m.config.Redact {
		if strings.EqualFold(r, header) {
			return true
		}
	}
	return false
}

// HealthSkipper skips probe and scrape endpoints
func HealthSkipper(c *fiber.Ctx) bool {
	switch c.Path() {
	case "/livez", "/readyz", "/metrics":
		return true
	}
	return false
}
