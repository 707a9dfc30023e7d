package contracts

import (
	"errors"
	"net/http"
	"strings"

	"freelancer-hub/config"
	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/contracts"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/users"
	"freelancer-hub/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrClientNotFound  = apperr.NotFound("Client not found")
	ErrProjectNotFound = apperr.NotFound("Project not found")
	ErrNotDeletable    = apperr.Conflict("Only draft or cancelled contracts can be deleted")
)

type contractInput struct {
	ClientID  uint   `json:"client_id" binding:"required"`
	ProjectID *uint  `json:"project_id"`
	Title     string `json:"title" binding:"required,max=200"`
	Content   string `json:"content" binding:"required,max=100000"`
}

func bindContract(c *gin.Context) (contractInput, bool) {
	var in contractInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return in, false
	}
	userID := c.GetUint("user_id")
	if _, err := clients.FindOwned(database.DB, userID, in.ClientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrClientNotFound
		}
		respond.Error(c, err)
		return in, false
	}
	if in.ProjectID != nil {
		p, err := projects.FindOwned(database.DB, userID, *in.ProjectID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && p.ClientID != in.ClientID) {
			err = ErrProjectNotFound
		}
		if err != nil {
			respond.Error(c, err)
			return in, false
		}
	}
	return in, true
}

func ListContracts(c *gin.Context) {
	q := contracts.Owned(database.DB, c.GetUint("user_id"))
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	if c.Query("client_id") != "" {
		id, ok := respond.QueryID(c, "client_id")
		if !ok {
			return
		}
		q = q.Where("client_id = ?", id)
	}
	var out []contracts.Contract
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func CreateContract(c *gin.Context) {
	in, ok := bindContract(c)
	if !ok {
		return
	}
	ct := contracts.Contract{
		UserID:    c.GetUint("user_id"),
		ClientID:  in.ClientID,
		ProjectID: in.ProjectID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Status:    contracts.StatusDraft,
	}
	if err := database.DB.Create(&ct).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, ct)
}

func GetContract(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	ct, err := contracts.FindOwned(database.DB, c.GetUint("user_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

func UpdateContract(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	userID := c.GetUint("user_id")
	ct, err := contracts.FindOwned(database.DB, userID, id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if ct.Status != contracts.StatusDraft {
		respond.Error(c, contracts.ErrNotEditable)
		return
	}
	in, ok := bindContract(c)
	if !ok {
		return
	}
	res := database.DB.Model(&contracts.Contract{}).
		Where("id = ? AND status = ?", ct.ID, contracts.StatusDraft).
		Updates(map[string]interface{}{
			"client_id":  in.ClientID,
			"project_id": in.ProjectID,
			"title":      strings.TrimSpace(in.Title),
			"content":    in.Content,
		})
	if res.Error != nil {
		respond.Error(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respond.Error(c, contracts.ErrNotEditable)
		return
	}
	ct, err = contracts.FindOwned(database.DB, userID, id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

func DeleteContract(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	ct, err := contracts.FindOwned(database.DB, c.GetUint("user_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if ct.Status != contracts.StatusDraft && ct.Status != contracts.StatusCancelled {
		respond.Error(c, ErrNotDeletable)
		return
	}
	if err := database.DB.Delete(&ct).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SendContract opens a draft for signature and tells the client.
func SendContract(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	userID := c.GetUint("user_id")
	ct, err := contracts.Send(database.DB, userID, id, services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}

	sent := false
	var user users.User
	var client clients.Client
	if err := database.DB.First(&user, userID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	if err := database.DB.First(&client, ct.ClientID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	if client.Email != "" {
		msg, err := notify.ContractSent(config.App.AppURL, user, client, ct)
		if err == nil {
			err = services.Mailer.Send(c.Request.Context(), msg)
		}
		if err != nil {
			log.Warn().Err(err).Uint("contract_id", ct.ID).Msg("contract email not sent")
		} else {
			sent = true
		}
	}
	c.JSON(http.StatusOK, gin.H{"contract": ct, "email_sent": sent})
}

func CancelContract(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	ct, err := contracts.Cancel(database.DB, c.GetUint("user_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}
