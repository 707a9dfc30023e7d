package portal

import (
	"errors"
	"net/http"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/users"
	"freelancer-hub/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrProjectNotFound = apperr.NotFound("Project not found")

func notFound(err, nf error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return err
}

func projectFilter(c *gin.Context) (*uint, bool) {
	if c.Query("project_id") == "" {
		return nil, true
	}
	id, ok := respond.QueryID(c, "project_id")
	if !ok {
		return nil, false
	}
	return &id, true
}

func ListMessages(c *gin.Context) {
	projectID, ok := projectFilter(c)
	if !ok {
		return
	}
	clientID, userID := c.GetUint("client_id"), c.GetUint("portal_user_id")
	thread, err := portal.Thread(database.DB, userID, clientID, projectID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := portal.MarkRead(database.DB, userID, clientID, portal.SenderClient, services.Now()); err != nil {
		log.Warn().Err(err).Uint("client_id", clientID).Msg("mark messages read")
	}
	c.JSON(http.StatusOK, thread)
}

// PostMessage stores a client message and notifies the freelancer by email.
func PostMessage(c *gin.Context) {
	var in struct {
		Body      string `json:"body" binding:"required,max=10000"`
		ProjectID *uint  `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	clientID, userID := c.GetUint("client_id"), c.GetUint("portal_user_id")
	if in.ProjectID != nil {
		var n int64
		err := database.DB.Model(&projects.Project{}).
			Where("id = ? AND client_id = ?", *in.ProjectID, clientID).
			Count(&n).Error
		if err != nil {
			respond.Error(c, err)
			return
		}
		if n == 0 {
			respond.Error(c, ErrProjectNotFound)
			return
		}
	}
	msg, err := portal.PostMessage(database.DB, portal.Message{
		ClientID:  clientID,
		UserID:    userID,
		ProjectID: in.ProjectID,
		Sender:    portal.SenderClient,
		Body:      in.Body,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}

	var user users.User
	var client clients.Client
	if database.DB.First(&user, userID).Error == nil && database.DB.First(&client, clientID).Error == nil {
		note, err := notify.ClientMessage(user, client, msg.Body)
		if err == nil {
			err = services.Mailer.Send(c.Request.Context(), note)
		}
		if err != nil {
			log.Warn().Err(err).Uint("client_id", clientID).Msg("message notification not sent")
		}
	}
	c.JSON(http.StatusCreated, msg)
}
