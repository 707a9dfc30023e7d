package middleware

import (
	"net/http"
	"strconv"

	"freelancer-hub/internal/metrics"
	"freelancer-hub/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RateLimit applies profile p per client ip and route. Store failures let the
// request through.
func RateLimit(store ratelimit.Store, p ratelimit.Profile) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		d, err := store.Check(c.Request.Context(), ratelimit.Key(c.ClientIP(), path), p.Limit, p.Window)
		if err != nil {
			log.Warn().Err(err).Str("profile", p.Name).Msg("rate limit store unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			retry := ratelimit.RetrySeconds(d.RetryAfter)
			metrics.RateLimitRejections.WithLabelValues(p.Name).Inc()
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": retry,
			})
			return
		}
		c.Next()
	}
}
