package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"crm-app/internal/logger"
	"crm-app/internal/metrics"

	"github.com/gin-gonic/gin"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RateLimit counts requests per user (or per client IP for anonymous callers)
// under the given route name. Limiter failures let the request through.
func RateLimit(l Limiter, route string, m metrics.AccessMetrics, log logger.Logger) gin.HandlerFunc {
	if m == nil {
		m = metrics.Nop{}
	}
	return func(c *gin.Context) {
		key := route + ":ip:" + c.ClientIP()
		if id, ok := UserID(c); ok {
			key = route + ":user:" + id.String()
		}

		allowed, retry, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable", map[string]interface{}{
				"route": route,
				"error": err.Error(),
			})
			c.Next()
			return
		}
		if !allowed {
			m.IncRateLimited(route)
			secs := int(retry.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
