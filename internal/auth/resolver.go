package auth

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

const (
	bearerPrefix = "Bearer "
	basicPrefix  = "Basic "

	// MinTokenLength is the shortest bearer token that is passed on for validation
	MinTokenLength = 11
)

// TokenValidator turns a bearer token into a principal
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.Principal, error)
}

// CredentialChecker verifies a username and password pair
type CredentialChecker interface {
	CheckCredentials(ctx context.Context, username, password string) bool
}

// Resolver resolves Authorization headers
type Resolver struct {
	tokens TokenValidator
	creds  CredentialChecker
}

// NewResolver creates a resolver. A nil token validator falls back to
// StaticTokenValidator.
func NewResolver(tokens TokenValidator, creds CredentialChecker) *Resolver {
	if tokens == nil {
		tokens = StaticTokenValidator{}
	}
	return &Resolver{tokens: tokens, creds: creds}
}

// Resolve returns the principal for header, or nil when header is empty
func (r *Resolver) Resolve(ctx context.Context, header string) (*domain.Principal, error) {
	switch {
	case header == "":
		return nil, nil
	case strings.HasPrefix(header, bearerPrefix):
		return r.resolveBearer(ctx, header[len(bearerPrefix):])
	case strings.HasPrefix(header, basicPrefix):
		return r.resolveBasic(ctx, header[len(basicPrefix):])
	default:
		return nil, apperrors.MalformedInput("Unsupported authorization scheme")
	}
}

func (r *Resolver) resolveBearer(ctx context.Context, token string) (*domain.Principal, error) {
	if len(token) < MinTokenLength {
		return nil, apperrors.InvalidToken()
	}

	principal, err := r.tokens.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, apperrors.InvalidToken()
	}
	return principal, nil
}

func (r *Resolver) resolveBasic(ctx context.Context, encoded string) (*domain.Principal, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperrors.MalformedInput("Invalid basic credentials encoding").WithError(err)
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return nil, apperrors.MalformedInput("Invalid basic credentials format")
	}

	if r.creds == nil || !r.creds.CheckCredentials(ctx, username, password) {
		return nil, apperrors.InvalidCredentials()
	}
	return domain.AdminPrincipal(username), nil
}
