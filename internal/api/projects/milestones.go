package projects

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/projects"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrMilestoneLocked     = apperr.Conflict("Approved or paid milestones cannot be changed")
	ErrMilestoneInvoiced   = apperr.Conflict("Milestone has an invoice and cannot be deleted")
	ErrDeliverableNotFound = apperr.NotFound("Deliverable not found")
)

type deliverableInput struct {
	Title string `json:"title" binding:"required,max=200"`
	URL   string `json:"url" binding:"omitempty,url,max=2000"`
}

type milestoneInput struct {
	Title        string             `json:"title" binding:"required,max=200"`
	Description  string             `json:"description" binding:"max=5000"`
	Amount       decimal.Decimal    `json:"amount"`
	DueDate      *time.Time         `json:"due_date"`
	Deliverables []deliverableInput `json:"deliverables" binding:"omitempty,max=50,dive"`
}

func locked(s projects.MilestoneStatus) bool {
	return s == projects.MilestoneApproved || s == projects.MilestonePaid
}

func findMilestone(c *gin.Context) (projects.Milestone, bool) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return projects.Milestone{}, false
	}
	m, err := projects.FindOwnedMilestone(database.DB, c.GetUint("user_id"), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = projects.ErrMilestoneNotFound
	}
	if err != nil {
		respond.Error(c, err)
		return m, false
	}
	return m, true
}

func ListMilestones(c *gin.Context) {
	p, ok := findOwned(c)
	if !ok {
		return
	}
	if err := withMilestones(database.DB).First(&p, p.ID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p.Milestones)
}

func CreateMilestone(c *gin.Context) {
	p, ok := findOwned(c)
	if !ok {
		return
	}
	var in milestoneInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	amount := in.Amount.Round(2)

	var m projects.Milestone
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := projects.CheckBudget(tx, p, 0, amount); err != nil {
			return err
		}
		var next int
		if err := tx.Model(&projects.Milestone{}).
			Where("project_id = ?", p.ID).
			Select("COALESCE(MAX(sort_index), -1) + 1").
			Scan(&next).Error; err != nil {
			return err
		}
		m = projects.Milestone{
			ProjectID:   p.ID,
			SortIndex:   next,
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			Amount:      amount,
			Status:      projects.MilestonePending,
			DueDate:     in.DueDate,
		}
		for _, d := range in.Deliverables {
			m.Deliverables = append(m.Deliverables, projects.Deliverable{
				Title:  strings.TrimSpace(d.Title),
				URL:    d.URL,
				Status: projects.DeliverablePending,
			})
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func UpdateMilestone(c *gin.Context) {
	m, ok := findMilestone(c)
	if !ok {
		return
	}
	if locked(m.Status) {
		respond.Error(c, ErrMilestoneLocked)
		return
	}
	var in milestoneInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	var p projects.Project
	if err := database.DB.First(&p, m.ProjectID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	amount := in.Amount.Round(2)
	if err := projects.CheckBudget(database.DB, p, m.ID, amount); err != nil {
		respond.Error(c, err)
		return
	}

	res := database.DB.Model(&projects.Milestone{}).
		Where("id = ? AND status IN ?", m.ID, []projects.MilestoneStatus{
			projects.MilestonePending, projects.MilestoneInProgress, projects.MilestonePendingApproval,
		}).
		Updates(map[string]interface{}{
			"title":       strings.TrimSpace(in.Title),
			"description": in.Description,
			"amount":      amount,
			"due_date":    in.DueDate,
		})
	if res.Error != nil {
		respond.Error(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respond.Error(c, ErrMilestoneLocked)
		return
	}
	out, err := projects.LoadMilestone(database.DB, m.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func DeleteMilestone(c *gin.Context) {
	m, ok := findMilestone(c)
	if !ok {
		return
	}
	if locked(m.Status) {
		respond.Error(c, ErrMilestoneLocked)
		return
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&invoices.Invoice{}).Where("milestone_id = ?", m.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrMilestoneInvoiced
		}
		if err := tx.Where("milestone_id = ?", m.ID).Delete(&projects.Deliverable{}).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func StartMilestone(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	m, err := projects.StartMilestone(database.DB, c.GetUint("user_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func SubmitMilestone(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	m, err := projects.SubmitMilestone(database.DB, c.GetUint("user_id"), id, services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// MarkMilestonePaid records payment received outside an invoice.
func MarkMilestonePaid(c *gin.Context) {
	m, ok := findMilestone(c)
	if !ok {
		return
	}
	if m.Status != projects.MilestoneApproved {
		respond.Error(c, projects.ErrInvalidTransition)
		return
	}
	if err := projects.MarkPaid(database.DB, m.ID, services.Now()); err != nil {
		respond.Error(c, err)
		return
	}
	out, err := projects.LoadMilestone(database.DB, m.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func ReorderMilestones(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	var in struct {
		IDs []uint `json:"ids" binding:"required,min=1,dive,min=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	if err := projects.Reorder(database.DB, c.GetUint("user_id"), id, in.IDs); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrProjectNotFound
		}
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func AddDeliverable(c *gin.Context) {
	m, ok := findMilestone(c)
	if !ok {
		return
	}
	if locked(m.Status) {
		respond.Error(c, ErrMilestoneLocked)
		return
	}
	var in deliverableInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	d := projects.Deliverable{
		MilestoneID: m.ID,
		Title:       strings.TrimSpace(in.Title),
		URL:         in.URL,
		Status:      projects.DeliverablePending,
	}
	if err := database.DB.Create(&d).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func DeleteDeliverable(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	var d projects.Deliverable
	err := database.DB.Model(&projects.Deliverable{}).
		Joins("JOIN milestones ON milestones.id = deliverables.milestone_id").
		Joins("JOIN projects ON projects.id = milestones.project_id").
		Where("deliverables.id = ? AND projects.user_id = ?", id, c.GetUint("user_id")).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrDeliverableNotFound
	}
	if err != nil {
		respond.Error(c, err)
		return
	}
	var m projects.Milestone
	if err := database.DB.First(&m, d.MilestoneID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	if locked(m.Status) {
		respond.Error(c, ErrMilestoneLocked)
		return
	}
	if err := database.DB.Delete(&d).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
