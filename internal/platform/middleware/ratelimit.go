package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig allows a burst of five login attempts per client,
// then one every ten seconds.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 0.1,
		BurstSize:         5,
	}
}

// tokenBucket implements a token bucket rate limiter.
type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: time.Now(),
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (b *tokenBucket) retryAfter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refillRate <= 0 {
		return 1
	}
	if wait := int(math.Ceil((1 - b.tokens) / b.refillRate)); wait > 1 {
		return wait
	}
	return 1
}

// bucketIdleTTL is how long an unused client bucket is kept. By then it has
// refilled for any sane config.
const bucketIdleTTL = 15 * time.Minute

// rateLimiterStore holds per-key token buckets. Idle buckets expire so
// one-off clients do not accumulate.
type rateLimiterStore struct {
	buckets *cache.Cache
	mu      sync.Mutex
	config  RateLimitConfig
}

func newRateLimiterStore(cfg RateLimitConfig, idle time.Duration) *rateLimiterStore {
	return &rateLimiterStore{
		buckets: cache.New(idle, idle),
		config:  cfg,
	}
}

func (s *rateLimiterStore) getBucket(key string) *tokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.buckets.Get(key); ok {
		s.buckets.SetDefault(key, v)
		return v.(*tokenBucket)
	}
	bucket := newTokenBucket(s.config.RequestsPerSecond, s.config.BurstSize)
	s.buckets.SetDefault(key, bucket)
	return bucket
}

// RateLimit throttles requests per client IP. It is mounted on the login
// form only; the remote API does its own limiting for everything else.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newRateLimiterStore(cfg, bucketIdleTTL)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			bucket := store.getBucket(c.RealIP())
			if !bucket.allow() {
				retryAfter := bucket.retryAfter()
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				c.Response().Header().Set("X-RateLimit-Limit", limit)
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests,
					"Too many login attempts. Please wait "+strconv.Itoa(retryAfter)+" seconds and try again.")
			}

			c.Response().Header().Set("X-RateLimit-Limit", limit)
			return next(c)
		}
	}
}
