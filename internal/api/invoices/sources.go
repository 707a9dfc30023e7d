package invoices

import (
	"net/http"
	"time"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/domain/invoices"

	"github.com/gin-gonic/gin"
)

// FromTimeEntries bills the selected time entries on a new draft.
func FromTimeEntries(c *gin.Context) {
	var in struct {
		ClientID  uint       `json:"client_id" binding:"required"`
		ProjectID *uint      `json:"project_id"`
		EntryIDs  []uint     `json:"entry_ids" binding:"required,min=1,max=500"`
		DueDate   *time.Time `json:"due_date"`
		Notes     string     `json:"notes" binding:"max=5000"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := checkRefs(database.DB, user.ID, in.ClientID, in.ProjectID); err != nil {
		respond.Error(c, err)
		return
	}
	inv, err := invoices.FromTimeEntries(database.DB, user, invoices.FromTimeInput{
		ClientID:  in.ClientID,
		ProjectID: in.ProjectID,
		EntryIDs:  in.EntryIDs,
		DueDate:   in.DueDate,
		Notes:     in.Notes,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// FromMilestone drafts the invoice for an approved milestone.
func FromMilestone(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	var in struct {
		DueDate *time.Time `json:"due_date"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			respond.BindError(c, err)
			return
		}
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}
	inv, err := invoices.FromMilestone(database.DB, user, id, in.DueDate)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}
