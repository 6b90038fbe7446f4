package middleware

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

// RateLimitConfig configures the rate limiter
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained refill rate per client
	RequestsPerSecond float64
	// Burst is the bucket size per client
	Burst int
	// IdleTTL evicts clients not seen for this long
	IdleTTL time.Duration
	// Key generator function
	KeyGenerator func(*fiber.Ctx) string
	// Skip function
	Skip func(*fiber.Ctx) bool
	// Now is the clock, overridable in tests
	Now func() time.Time
}

// DefaultRateLimitConfig returns default rate limit config
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		IdleTTL:           10 * time.Minute,
		KeyGenerator:      ClientKey,
		Skip:              HealthSkipper,
		Now:               time.Now,
	}
}

// ClientKey identifies the caller by the first X-Forwarded-For hop, falling
// back to the remote address
func ClientKey(c *fiber.Ctx) string {
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return strings.Clone(first)
		}
	}
	return c.IP()
}

// RateLimiter applies a token bucket per key and periodically evicts idle keys
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*bucket
	hits  uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const evictEvery = 512

// NewRateLimiter creates a keyed limiter
func NewRateLimiter(rps float64, burst int, idleTTL time.Duration) *RateLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byKey:   make(map[string]*bucket),
	}
}

// Allow reports whether key may spend one token at now
func (l *RateLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byKey[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		// key may alias a fasthttp buffer that is reused after the request
		l.byKey[strings.Clone(key)] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%evictEvery == 0 {
		l.evict(now)
	}
	return allowed
}

// Len returns the number of tracked keys
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

// Keys returns the tracked keys in no particular order
func (l *RateLimiter) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.byKey))
	for k := range l.byKey {
		keys = append(keys, k)
	}
	return keys
}

func (l *RateLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, b := range l.byKey {
		if b.lastSeen.Before(cutoff) {
			delete(l.byKey, k)
		}
	}
}

// RateLimitMiddleware rejects clients that exhaust their bucket
type RateLimitMiddleware struct {
	limiter *RateLimiter
	config  RateLimitConfig
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(config ...RateLimitConfig) *RateLimitMiddleware {
	cfg := DefaultRateLimitConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = ClientKey
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &RateLimitMiddleware{
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst, cfg.IdleTTL),
		config:  cfg,
	}
}

// Handler returns the rate limit handler
func (m *RateLimitMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(m.config.Burst))
		if !m.limiter.Allow(m.config.KeyGenerator(c), m.config.Now()) {
			c.Set(fiber.HeaderRetryAfter, "1")
			return WriteError(c, apperrors.RateLimited())
		}
		return c.Next()
	}
}
