package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

// StaticTokenValidator accepts every token and issues the regular user principal
type StaticTokenValidator struct{}

// ValidateToken implements TokenValidator
func (StaticTokenValidator) ValidateToken(_ context.Context, _ string) (*domain.Principal, error) {
	return domain.RegularUserPrincipal(), nil
}

// Claims are the JWT claims carried by a relaygate token
type Claims struct {
	Username    string   `json:"username"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// JWTValidator validates HMAC signed tokens
type JWTValidator struct {
	secret []byte
	issuer string
}

// NewJWTValidator creates a JWT validator. An empty issuer is not checked.
func NewJWTValidator(secret, issuer string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret), issuer: issuer}
}

// ValidateToken implements TokenValidator
func (v *JWTValidator) ValidateToken(_ context.Context, tokenString string) (*domain.Principal, error) {
	var opts []jwt.ParserOption
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, apperrors.InvalidToken().WithError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.InvalidToken()
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, apperrors.InvalidToken().WithError(err)
	}

	return domain.NewPrincipal(id, claims.Username, claims.Roles, claims.Permissions), nil
}

// Sign issues a token for p that expires after ttl
func (v *JWTValidator) Sign(p *domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:    p.Username,
		Roles:       p.Roles,
		Permissions: p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
