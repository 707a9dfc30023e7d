package projects

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/contracts"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/portal"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/timeentries"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound = apperr.NotFound("Project not found")
	ErrClientNotFound  = apperr.NotFound("Client not found")
	ErrInvalidStatus   = apperr.Validation("Invalid project status", map[string]string{"status": "oneof"})
	ErrProjectBilled   = apperr.Conflict("Project has invoices or invoiced time and cannot be deleted")
)

type projectInput struct {
	ClientID    uint                   `json:"client_id" binding:"required"`
	Name        string                 `json:"name" binding:"required,max=200"`
	Description string                 `json:"description" binding:"max=5000"`
	Status      projects.ProjectStatus `json:"status"`
	Budget      decimal.Decimal        `json:"budget"`
	HourlyRate  decimal.Decimal        `json:"hourly_rate"`
	StartDate   *time.Time             `json:"start_date"`
	EndDate     *time.Time             `json:"end_date"`
}

func (in projectInput) validate() error {
	if in.Status != "" && !in.Status.Valid() {
		return ErrInvalidStatus
	}
	if in.Budget.IsNegative() {
		return apperr.Validation("Budget must not be negative", map[string]string{"budget": "min"})
	}
	if in.HourlyRate.IsNegative() {
		return apperr.Validation("Hourly rate must not be negative", map[string]string{"hourly_rate": "min"})
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return apperr.Validation("End date is before start date", map[string]string{"end_date": "gtefield"})
	}
	return nil
}

func (in projectInput) apply(p *projects.Project) {
	p.ClientID = in.ClientID
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	if in.Status != "" {
		p.Status = in.Status
	}
	if p.Status == "" {
		p.Status = projects.ProjectActive
	}
	p.Budget = in.Budget.Round(2)
	p.HourlyRate = in.HourlyRate.Round(2)
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
}

func bindProject(c *gin.Context) (projectInput, bool) {
	var in projectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return in, false
	}
	if err := in.validate(); err != nil {
		respond.Error(c, err)
		return in, false
	}
	if _, err := clients.FindOwned(database.DB, c.GetUint("user_id"), in.ClientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrClientNotFound
		}
		respond.Error(c, err)
		return in, false
	}
	return in, true
}

func findOwned(c *gin.Context) (projects.Project, bool) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return projects.Project{}, false
	}
	p, err := projects.FindOwned(database.DB, c.GetUint("user_id"), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respond.Error(c, ErrProjectNotFound)
		return p, false
	}
	if err != nil {
		respond.Error(c, err)
		return p, false
	}
	return p, true
}

func withMilestones(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("sort_index ASC, id ASC") }).
		Preload("Milestones.Deliverables", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func ListProjects(c *gin.Context) {
	q := projects.Owned(database.DB, c.GetUint("user_id"))
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
	var out []projects.Project
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func CreateProject(c *gin.Context) {
	in, ok := bindProject(c)
	if !ok {
		return
	}
	p := projects.Project{UserID: c.GetUint("user_id")}
	in.apply(&p)
	if err := database.DB.Create(&p).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func GetProject(c *gin.Context) {
	p, ok := findOwned(c)
	if !ok {
		return
	}
	if err := withMilestones(database.DB).First(&p, p.ID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProject rejects a budget below the milestones already planned.
func UpdateProject(c *gin.Context) {
	p, ok := findOwned(c)
	if !ok {
		return
	}
	in, ok := bindProject(c)
	if !ok {
		return
	}
	in.apply(&p)
	if err := projects.CheckBudget(database.DB, p, 0, decimal.Zero); err != nil {
		respond.Error(c, err)
		return
	}
	if err := database.DB.Save(&p).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func DeleteProject(c *gin.Context) {
	p, ok := findOwned(c)
	if !ok {
		return
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&invoices.Invoice{}).Where("project_id = ?", p.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			err := tx.Model(&timeentries.TimeEntry{}).Where("project_id = ? AND invoice_id IS NOT NULL", p.ID).Count(&n).Error
			if err != nil {
				return err
			}
		}
		if n > 0 {
			return ErrProjectBilled
		}

		milestoneIDs := tx.Model(&projects.Milestone{}).Select("id").Where("project_id = ?", p.ID)
		if err := tx.Where("milestone_id IN (?)", milestoneIDs).Delete(&projects.Deliverable{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", p.ID).Delete(&projects.Milestone{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", p.ID).Delete(&timeentries.TimeEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&contracts.Contract{}).Where("project_id = ?", p.ID).Update("project_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&portal.Message{}).Where("project_id = ?", p.ID).Update("project_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
