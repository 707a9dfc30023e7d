package portal

import (
	"net/http"
	"strings"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/domain/contracts"
	"freelancer-hub/internal/domain/projects"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func withMilestones(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("sort_index ASC, id ASC") }).
		Preload("Milestones.Deliverables", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func ListProjects(c *gin.Context) {
	var out []projects.Project
	err := database.DB.Where("client_id = ?", c.GetUint("client_id")).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func GetProject(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	var p projects.Project
	err := withMilestones(database.DB).
		Where("id = ? AND client_id = ?", id, c.GetUint("client_id")).
		First(&p).Error
	if err != nil {
		respond.Error(c, notFound(err, ErrProjectNotFound))
		return
	}
	c.JSON(http.StatusOK, p)
}

func ApproveMilestone(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	m, err := projects.ApproveMilestone(database.DB, c.GetUint("client_id"), id, services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func RequestRevision(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Feedback string `json:"feedback" binding:"required,max=5000"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	m, err := projects.RequestRevision(database.DB, c.GetUint("client_id"), id, strings.TrimSpace(in.Feedback))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// ListContracts hides drafts; the client only sees what was sent.
func ListContracts(c *gin.Context) {
	var out []contracts.Contract
	err := database.DB.
		Where("client_id = ? AND status <> ?", c.GetUint("client_id"), contracts.StatusDraft).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func SignContract(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	var in struct {
		SignatureName string `json:"signature_name" binding:"max=200"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	ct, err := contracts.Sign(database.DB, c.GetUint("client_id"), id, in.SignatureName, c.ClientIP(), services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}
