package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

const localsPrincipal = "principal"

// PrincipalResolver turns an Authorization header value into a principal
type PrincipalResolver interface {
	Resolve(ctx context.Context, header string) (*domain.Principal, error)
}

// AuthMiddleware handles authentication for routes served outside the dispatcher
type AuthMiddleware struct {
	resolver PrincipalResolver
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(resolver PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
	}
}

// OptionalAuth resolves the caller when an Authorization header is sent.
// Anonymous requests pass through; a rejected header does not.
func (m *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := m.resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return WriteError(c, err)
		}
		if principal != nil {
			c.Locals(localsPrincipal, principal)
		}
		return c.Next()
	}
}

// RequireAuth resolves the caller and rejects anonymous requests
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := m.resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return WriteError(c, err)
		}
		if principal == nil {
			return WriteError(c, apperrors.Unauthorized(""))
		}

		c.Locals(localsPrincipal, principal)
		return c.Next()
	}
}

// RequirePermission rejects callers lacking permission. It must run after
// OptionalAuth or RequireAuth.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := GetPrincipal(c)
		if principal == nil {
			return WriteError(c, apperrors.Unauthorized(""))
		}
		if !principal.HasPermission(permission) {
			return WriteError(c, apperrors.Forbidden(""))
		}
		return c.Next()
	}
}

// GetPrincipal returns the resolved caller, nil when anonymous
func GetPrincipal(c *fiber.Ctx) *domain.Principal {
	if p, ok := c.Locals(localsPrincipal).(*domain.Principal); ok {
		return p
	}
	return nil
}
