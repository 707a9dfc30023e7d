package clients

import (
	"net/http"
	"net/url"
	"time"

	"freelancer-hub/config"
	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/users"
	"freelancer-hub/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var ErrNoEmail = apperr.Validation("Client has no email address", map[string]string{"email": "required"})

type inviteResponse struct {
	Sent      bool      `json:"sent"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PortalInvite issues a single-use sign-in link and emails it to the client.
func PortalInvite(c *gin.Context) {
	client, ok := findOwned(c)
	if !ok {
		return
	}
	if client.Email == "" {
		respond.Error(c, ErrNoEmail)
		return
	}
	var user users.User
	if err := database.DB.First(&user, client.UserID).Error; err != nil {
		respond.Error(c, err)
		return
	}

	raw, token, err := portal.IssueLink(database.DB, user.ID, client.ID, config.App.Portal.LinkTTL, services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	link := config.App.AppURL + "/portal/auth?token=" + url.QueryEscape(raw)

	resp := inviteResponse{Link: link, ExpiresAt: token.ExpiresAt}
	msg, err := notify.PortalInvite(user, client, link, token.ExpiresAt)
	if err == nil {
		err = services.Mailer.Send(c.Request.Context(), msg)
	}
	if err != nil {
		log.Warn().Err(err).Uint("client_id", client.ID).Msg("portal invite email not sent")
	} else {
		resp.Sent = true
	}
	c.JSON(http.StatusCreated, resp)
}

func ListMessages(c *gin.Context) {
	client, ok := findOwned(c)
	if !ok {
		return
	}
	var projectID *uint
	if c.Query("project_id") != "" {
		id, ok := respond.QueryID(c, "project_id")
		if !ok {
			return
		}
		projectID = &id
	}
	thread, err := portal.Thread(database.DB, client.UserID, client.ID, projectID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := portal.MarkRead(database.DB, client.UserID, client.ID, portal.SenderFreelancer, services.Now()); err != nil {
		log.Warn().Err(err).Uint("client_id", client.ID).Msg("mark messages read")
	}
	c.JSON(http.StatusOK, thread)
}

func PostMessage(c *gin.Context) {
	client, ok := findOwned(c)
	if !ok {
		return
	}
	var in struct {
		Body      string `json:"body" binding:"required,max=10000"`
		ProjectID *uint  `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	if in.ProjectID != nil {
		var n int64
		err := projects.Owned(database.DB, client.UserID).Where("id = ? AND client_id = ?", *in.ProjectID, client.ID).Count(&n).Error
		if err != nil {
			respond.Error(c, err)
			return
		}
		if n == 0 {
			respond.Error(c, apperr.NotFound("Project not found"))
			return
		}
	}
	msg, err := portal.PostMessage(database.DB, portal.Message{
		ClientID:  client.ID,
		UserID:    client.UserID,
		ProjectID: in.ProjectID,
		Sender:    portal.SenderFreelancer,
		Body:      in.Body,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
