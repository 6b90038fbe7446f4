package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/domain"
)

const tokenCachePrefix = "relaygate:token:"

// Cache is the subset of a key/value cache used for validated tokens
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
}

// CachedValidator memoises successful validations of another TokenValidator.
// Rejections are never cached.
type CachedValidator struct {
	next   TokenValidator
	cache  Cache
	logger *zap.Logger
}

// NewCachedValidator wraps next with cache
func NewCachedValidator(next TokenValidator, cache Cache, logger *zap.Logger) *CachedValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedValidator{next: next, cache: cache, logger: logger}
}

// ValidateToken implements TokenValidator
func (v *CachedValidator) ValidateToken(ctx context.Context, token string) (*domain.Principal, error) {
	key := cacheKey(token)

	if raw, ok := v.cache.Get(ctx, key); ok {
		var p domain.Principal
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return &p, nil
		}
		v.logger.Warn("discarding unreadable cached principal")
	}

	p, err := v.next.ValidateToken(ctx, token)
	if err != nil || p == nil {
		return p, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := v.cache.Set(ctx, key, string(raw)); err != nil {
			v.logger.Warn("failed to cache principal", zap.Error(err))
		}
	}
	return p, nil
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return tokenCachePrefix + hex.EncodeToString(sum[:])
}
