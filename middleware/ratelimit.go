package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/metrics"
	"storefront/ratelimit"
)

// RateLimit enforces rule per client IP. Limiter errors let the request through.
func RateLimit(limiter ratelimit.Limiter, rule ratelimit.Rule, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), rule, c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("limiter", rule.Name), zap.Error(err))
			c.Next()
			return
		}

		resetIn := int(time.Until(res.Reset).Seconds() + 0.5)
		if resetIn < 0 {
			resetIn = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetIn))

		if !res.Allowed {
			metrics.RateLimitRejections.WithLabelValues(rule.Name).Inc()
			c.Header("Retry-After", strconv.Itoa(resetIn))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}
