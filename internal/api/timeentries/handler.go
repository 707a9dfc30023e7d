package timeentries

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/timeentries"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrProjectNotFound = apperr.NotFound("Project not found")

type entryInput struct {
	ProjectID   uint             `json:"project_id" binding:"required"`
	Description string           `json:"description" binding:"max=1000"`
	StartedAt   time.Time        `json:"started_at" binding:"required"`
	EndedAt     time.Time        `json:"ended_at" binding:"required"`
	Billable    *bool            `json:"billable"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
}

func ownedProject(c *gin.Context, id uint) (projects.Project, bool) {
	p, err := projects.FindOwned(database.DB, c.GetUint("user_id"), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrProjectNotFound
	}
	if err != nil {
		respond.Error(c, err)
		return p, false
	}
	return p, true
}

// rate falls back to the project's hourly rate.
func rate(in *decimal.Decimal, p projects.Project) decimal.Decimal {
	if in != nil && !in.IsNegative() {
		return in.Round(2)
	}
	return p.HourlyRate
}

func ListEntries(c *gin.Context) {
	q := timeentries.Owned(database.DB, c.GetUint("user_id"))
	if c.Query("project_id") != "" {
		id, ok := respond.QueryID(c, "project_id")
		if !ok {
			return
		}
		q = q.Where("project_id = ?", id)
	}
	if c.Query("unbilled") == "true" {
		q = q.Where("invoice_id IS NULL AND billable = ? AND ended_at IS NOT NULL", true)
	}
	var out []timeentries.TimeEntry
	if err := q.Order("started_at DESC").Limit(500).Find(&out).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreateEntry logs a finished block of time.
func CreateEntry(c *gin.Context) {
	var in entryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	p, ok := ownedProject(c, in.ProjectID)
	if !ok {
		return
	}
	e := timeentries.TimeEntry{
		UserID:      c.GetUint("user_id"),
		ProjectID:   p.ID,
		Description: strings.TrimSpace(in.Description),
		StartedAt:   in.StartedAt,
		Billable:    in.Billable == nil || *in.Billable,
		HourlyRate:  rate(in.HourlyRate, p),
	}
	if !in.EndedAt.After(in.StartedAt) {
		respond.Error(c, timeentries.ErrInvalidPeriod)
		return
	}
	if err := e.Close(in.EndedAt); err != nil {
		respond.Error(c, err)
		return
	}
	if err := database.DB.Create(&e).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func UpdateEntry(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	userID := c.GetUint("user_id")
	e, err := timeentries.FindOwned(database.DB, userID, id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if e.Invoiced() {
		respond.Error(c, timeentries.ErrAlreadyBilled)
		return
	}
	if e.Running() {
		respond.Error(c, timeentries.ErrTimerRunning)
		return
	}
	var in entryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	p, ok := ownedProject(c, in.ProjectID)
	if !ok {
		return
	}
	e.ProjectID = p.ID
	e.Description = strings.TrimSpace(in.Description)
	e.StartedAt = in.StartedAt
	if in.Billable != nil {
		e.Billable = *in.Billable
	}
	e.HourlyRate = rate(in.HourlyRate, p)
	if !in.EndedAt.After(in.StartedAt) {
		respond.Error(c, timeentries.ErrInvalidPeriod)
		return
	}
	if err := e.Close(in.EndedAt); err != nil {
		respond.Error(c, err)
		return
	}
	res := database.DB.Model(&timeentries.TimeEntry{}).
		Where("id = ? AND invoice_id IS NULL", e.ID).
		Updates(map[string]interface{}{
			"project_id":       e.ProjectID,
			"description":      e.Description,
			"started_at":       e.StartedAt,
			"ended_at":         e.EndedAt,
			"duration_minutes": e.DurationMinutes,
			"billable":         e.Billable,
			"hourly_rate":      e.HourlyRate,
		})
	if res.Error != nil {
		respond.Error(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respond.Error(c, timeentries.ErrAlreadyBilled)
		return
	}
	c.JSON(http.StatusOK, e)
}

func DeleteEntry(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	res := timeentries.Owned(database.DB, c.GetUint("user_id")).
		Where("id = ? AND invoice_id IS NULL", id).
		Delete(&timeentries.TimeEntry{})
	if res.Error != nil {
		respond.Error(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		if _, err := timeentries.FindOwned(database.DB, c.GetUint("user_id"), id); err != nil {
			respond.Error(c, err)
			return
		}
		respond.Error(c, timeentries.ErrAlreadyBilled)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func StartTimer(c *gin.Context) {
	var in struct {
		ProjectID   uint             `json:"project_id" binding:"required"`
		Description string           `json:"description" binding:"max=1000"`
		HourlyRate  *decimal.Decimal `json:"hourly_rate"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	p, ok := ownedProject(c, in.ProjectID)
	if !ok {
		return
	}
	e, err := timeentries.Start(database.DB, c.GetUint("user_id"), p.ID, strings.TrimSpace(in.Description), rate(in.HourlyRate, p), services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func StopTimer(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	e, err := timeentries.Stop(database.DB, c.GetUint("user_id"), id, services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
