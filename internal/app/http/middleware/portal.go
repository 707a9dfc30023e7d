package middleware

import (
	"net/http"
	"time"

	"freelancer-hub/config"
	"freelancer-hub/database"
	"freelancer-hub/internal/domain/portal"

	"github.com/gin-gonic/gin"
)

// PortalAuth resolves the portal_session cookie to a client and sets
// client_id and portal_user_id.
func PortalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(config.App.Portal.Cookie)
		sess, err := portal.Resolve(database.DB, raw, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Portal session is invalid or has expired"})
			return
		}
		c.Set("client_id", sess.ClientID)
		c.Set("portal_user_id", sess.UserID)
		c.Next()
	}
}

func SetPortalCookie(c *gin.Context, token string) {
	cfg := config.App
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Portal.Cookie, token, int(cfg.Portal.SessionTTL.Seconds()), "/", "", cfg.JWT.Secure, true)
}

func ClearPortalCookie(c *gin.Context) {
	cfg := config.App
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Portal.Cookie, "", -1, "/", "", cfg.JWT.Secure, true)
}
