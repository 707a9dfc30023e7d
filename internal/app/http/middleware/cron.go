package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"freelancer-hub/config"

	"github.com/gin-gonic/gin"
)

// CronAuth checks the shared scheduler secret. Without a configured secret
// every call is rejected.
func CronAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := config.App.Cron.Secret
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Cron secret not configured"})
			return
		}
		h := c.GetHeader("Authorization")
		token := strings.TrimPrefix(h, "Bearer ")
		if token == h || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
