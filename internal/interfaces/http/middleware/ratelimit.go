package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/enrichment/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key. Buckets of clients
// that stay idle for two windows are evicted.
type RateLimiter struct {
	clients *gocache.Cache
	limit   int           // Maximum requests per window
	window  time.Duration // Time window
	every   rate.Limit
}

// NewRateLimiter creates a limiter allowing limit requests per window,
// refilled evenly over the window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		clients: gocache.New(window*2, window*2),
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
	}
}

func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	if v, ok := rl.clients.Get(key); ok {
		l := v.(*rate.Limiter)
		rl.clients.SetDefault(key, l)
		return l
	}
	l := rate.NewLimiter(rl.every, rl.limit)
	if err := rl.clients.Add(key, l, gocache.DefaultExpiration); err != nil {
		// Lost the race to another request of the same client
		if v, ok := rl.clients.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// Allow checks if a request from the given key should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	return rl.bucket(key).Allow()
}

// Remaining returns the number of requests the key may still make right now
func (rl *RateLimiter) Remaining(key string) int {
	v, ok := rl.clients.Get(key)
	if !ok {
		return rl.limit
	}
	return int(math.Floor(v.(*rate.Limiter).Tokens()))
}

// RetryAfter returns how long the key waits for its next token
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	v, ok := rl.clients.Get(key)
	if !ok {
		return 0
	}
	l := v.(*rate.Limiter)
	r := l.Reserve()
	defer r.Cancel()
	return r.Delay()
}

// RateLimit returns a rate limiting middleware keyed by client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// RateLimitByKey returns a rate limiting middleware with custom key extractor
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return rateLimit(limiter, keyFunc, "Too many requests. Please try again later.")
}

// RunRateLimit guards the endpoints that start enrichment runs. Every run
// calls the external providers for many entries, so it is keyed per client
// and route and limited far below the general API limit.
func RunRateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return rateLimit(limiter, func(c *gin.Context) string {
		return c.ClientIP() + ":" + c.FullPath()
	}, "Too many enrichment runs started. Please wait before starting another one.")
}

func rateLimit(limiter *RateLimiter, keyFunc func(*gin.Context) string, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		if !limiter.Allow(key) {
			if wait := limiter.RetryAfter(key); wait > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, message, GetRequestID(c),
			))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
