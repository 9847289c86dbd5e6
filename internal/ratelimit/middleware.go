package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware limits requests per client IP. A nil bucket disables the
// limiter entirely. Redis errors fail open so an outage never blocks
// payment processing.
func Middleware(bucket *TokenBucket, rate float64, burst int, log *zap.Logger) gin.HandlerFunc {
	log = log.Named("ratelimit")
	return func(c *gin.Context) {
		if bucket == nil {
			c.Next()
			return
		}

		res, err := bucket.Allow(c.Request.Context(), "api:ip:"+c.ClientIP(), rate, burst)
		if err != nil {
			log.Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate_limit_exceeded",
			})
			return
		}
		c.Next()
	}
}
