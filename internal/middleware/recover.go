package middleware

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/config"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

// RecoverConfig configures the recover middleware
type RecoverConfig struct {
	// Logger instance
	Logger *zap.Logger
	// StackSize limits the stack trace size
	StackSize int
	// SentryEnabled reports recovered panics to Sentry
	SentryEnabled bool
}

// SentryConfig holds Sentry-specific configuration
type SentryConfig struct {
	DSN          string
	Environment  string
	Release      string
	SampleRate   float64
	FlushTimeout time.Duration
}

// NewSentryConfig builds the Sentry settings for one binary. Release is
// reported as relaygate-<binary>@<version>.
func NewSentryConfig(cfg config.SentryConfig, env, binary, version string) SentryConfig {
	rate := cfg.SampleRate
	if rate <= 0 || rate > 1 {
		rate = 1.0
	}
	return SentryConfig{
		DSN:          cfg.DSN,
		Environment:  env,
		Release:      "relaygate-" + binary + "@" + version,
		SampleRate:   rate,
		FlushTimeout: 5 * time.Second,
	}
}

// DefaultRecoverConfig returns default recover config
func DefaultRecoverConfig(logger *zap.Logger) RecoverConfig {
	return RecoverConfig{
		Logger:    logger,
		StackSize: 4 << 10, // 4 KB
	}
}

// InitSentry initializes the Sentry SDK. An empty DSN leaves it disabled.
func InitSentry(config SentryConfig) error {
	if config.DSN == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              config.DSN,
		Environment:      config.Environment,
		Release:          config.Release,
		SampleRate:       config.SampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	return nil
}

// FlushSentry flushes any buffered events to Sentry
func FlushSentry(timeout time.Duration) {
	sentry.Flush(timeout)
}

// RecoverMiddleware turns a panic in a fiber handler into a 500 response
type RecoverMiddleware struct {
	config RecoverConfig
}

// NewRecoverMiddleware creates a new recover middleware
func NewRecoverMiddleware(config RecoverConfig) *RecoverMiddleware {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.StackSize <= 0 {
		config.StackSize = 4 << 10
	}
	return &RecoverMiddleware{
		config: config,
	}
}

// Handler returns the recover handler
func (m *RecoverMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			stack := debug.Stack()
			if len(stack) > m.config.StackSize {
				stack = stack[:m.config.StackSize]
			}

			var panicErr error
			switch v := r.(type) {
			case error:
				panicErr = v
			default:
				panicErr = fmt.Errorf("%v", v)
			}

			m.config.Logger.Error("panic recovered",
				zap.Error(panicErr),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("client", ClientKey(c)),
				zap.String("stack", string(stack)),
				zap.String("request_id", GetRequestID(c)),
			)

			if m.config.SentryEnabled {
				m.report(c, r, stack)
			}

			err = WriteError(c, apperrors.Internal("panic recovered").WithError(panicErr))
		}()

		return c.Next()
	}
}

func (m *RecoverMiddleware) report(c *fiber.Ctx, r interface{}, stack []byte) {
	hub := sentry.CurrentHub().Clone()
	setSentryRequestContext(hub, c)
	hub.Scope().SetTag("request_id", GetRequestID(c))
	hub.Scope().SetTag("auth", AuthScheme(c.Get(fiber.HeaderAuthorization)))
	if p := GetPrincipal(c); p != nil {
		hub.Scope().SetUser(sentry.User{ID: strconv.FormatInt(p.ID, 10), Username: p.Username})
	}
	hub.Scope().SetExtra("stack_trace", string(stack))
	hub.Scope().SetLevel(sentry.LevelFatal)

	if eventID := hub.RecoverWithContext(c.UserContext(), r); eventID != nil {
		m.config.Logger.Info("panic reported to Sentry",
			zap.String("event_id", string(*eventID)),
		)
	}
	hub.Flush(2 * time.Second)
}

// setSentryRequestContext attaches the request line to a Sentry hub. Headers
// and bodies are left out; either may carry credentials or batch payloads.
func setSentryRequestContext(hub *sentry.Hub, c *fiber.Ctx) {
	hub.Scope().SetContext("Request", map[string]interface{}{
		"url":        c.OriginalURL(),
		"method":     c.Method(),
		"body_bytes": len(c.Request().Body()),
		"client":     ClientKey(c),
	})
}
