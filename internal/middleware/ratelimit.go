package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/metrics"
)

const rateLimitKeyPrefix = "sales-analytics:ratelimit:"

// RateLimiter caps requests per client IP in fixed windows. Counters live in
// Redis when a client is configured and in process memory otherwise or when
// Redis fails.
type RateLimiter struct {
	redisClient *redis.Client
	max         int
	window      time.Duration
	metrics     *metrics.Metrics
	logger      *logrus.Entry
	now         func() time.Time

	localMu sync.Mutex
	local   map[string]*windowCounter
}

type windowCounter struct {
	count     int
	expiresAt time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window.
// redisClient and m may be nil.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, m *metrics.Metrics, logger *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		max:         limit,
		window:      window,
		metrics:     m,
		logger:      logger.WithField("component", "rate_limiter"),
		now:         time.Now,
		local:       make(map[string]*windowCounter),
	}
}

// Middleware rejects callers over the limit with 429
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, resetAt := r.hit(c.Request.Context(), c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(r.max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, r.max-count)))

		if count > r.max {
			retryAfter := int(resetAt.Sub(r.now()).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			if r.metrics != nil {
				r.metrics.RateLimited.Inc()
			}
			r.logger.WithField("ip", c.ClientIP()).Debug("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			return
		}

		c.Next()
	}
}

// hit counts one request for client and returns the count in the current
// window together with the window end.
func (r *RateLimiter) hit(ctx context.Context, client string) (int, time.Time) {
	now := r.now()
	windowStart := now.Truncate(r.window)
	resetAt := windowStart.Add(r.window)

	if r.redisClient != nil {
		key := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, client, windowStart.Unix())
		pipe := r.redisClient.Pipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.window)
		if _, err := pipe.Exec(ctx); err != nil {
			r.logger.WithError(err).Warn("Redis increment failed, using local fallback")
		} else {
			return int(incr.Val()), resetAt
		}
	}

	r.localMu.Lock()
	defer r.localMu.Unlock()

	state, exists := r.local[client]
	if !exists || !now.Before(state.expiresAt) {
		state = &windowCounter{expiresAt: resetAt}
		r.local[client] = state
	}
	state.count++

	return state.count, state.expiresAt
}

// Cleanup drops expired in-memory counters
func (r *RateLimiter) Cleanup() {
	now := r.now()

	r.localMu.Lock()
	defer r.localMu.Unlock()

	for key, state := range r.local {
		if !now.Before(state.expiresAt) {
			delete(r.local, key)
		}
	}
}
