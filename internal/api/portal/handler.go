// Package portal serves the client-facing side of the app. Every handler
// after Auth runs behind PortalAuth and reads client_id from the context.
package portal

import (
	"net/http"

	"freelancer-hub/config"
	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/middleware"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type freelancerDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type meResponse struct {
	Client     clients.Client `json:"client"`
	Freelancer freelancerDTO  `json:"freelancer"`
}

// Auth exchanges a magic-link token for a portal session cookie.
func Auth(c *gin.Context) {
	var in struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	cfg := config.App
	raw, sess, err := portal.Exchange(database.DB, in.Token, cfg.Portal.SessionTTL, services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	middleware.SetPortalCookie(c, raw)
	c.JSON(http.StatusOK, gin.H{"client_id": sess.ClientID, "expires_at": sess.ExpiresAt})
}

func Logout(c *gin.Context) {
	if raw, err := c.Cookie(config.App.Portal.Cookie); err == nil && raw != "" {
		if err := portal.Revoke(database.DB, raw); err != nil {
			log.Warn().Err(err).Msg("revoke portal session")
		}
	}
	middleware.ClearPortalCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func Me(c *gin.Context) {
	var client clients.Client
	if err := database.DB.First(&client, c.GetUint("client_id")).Error; err != nil {
		respond.Error(c, err)
		return
	}
	var user users.User
	if err := database.DB.First(&user, client.UserID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, meResponse{
		Client:     client,
		Freelancer: freelancerDTO{Name: user.DisplayName(), Email: user.Email},
	})
}
