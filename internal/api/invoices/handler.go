package invoices

import (
	"errors"
	"net/http"
	"time"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/reminders"
	"freelancer-hub/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrClientNotFound  = apperr.NotFound("Client not found")
	ErrProjectNotFound = apperr.NotFound("Project not found")
)

type createInput struct {
	ClientID  uint                 `json:"client_id" binding:"required"`
	ProjectID *uint                `json:"project_id"`
	Currency  string               `json:"currency" binding:"omitempty,len=3"`
	TaxRate   decimal.Decimal      `json:"tax_rate"`
	IssueDate *time.Time           `json:"issue_date"`
	DueDate   *time.Time           `json:"due_date"`
	Notes     string               `json:"notes" binding:"max=5000"`
	LineItems []invoices.ItemInput `json:"line_items" binding:"omitempty,max=200,dive"`
}

type updateInput struct {
	TaxRate   *decimal.Decimal     `json:"tax_rate"`
	DueDate   *time.Time           `json:"due_date"`
	Notes     *string              `json:"notes" binding:"omitempty,max=5000"`
	LineItems []invoices.ItemInput `json:"line_items" binding:"omitempty,max=200,dive"`
}

type invoiceDetail struct {
	invoices.Invoice
	BalanceDue decimal.Decimal      `json:"balance_due"`
	Payments   []billing.Payment    `json:"payments"`
	Reminders  []reminders.Schedule `json:"reminders"`
}

func currentUser(c *gin.Context) (users.User, bool) {
	var u users.User
	if err := database.DB.First(&u, c.GetUint("user_id")).Error; err != nil {
		respond.Error(c, apperr.Unauthorized("User not found"))
		return u, false
	}
	return u, true
}

// checkRefs verifies the client, and the project when given, belong to the user.
func checkRefs(db *gorm.DB, userID, clientID uint, projectID *uint) error {
	if _, err := clients.FindOwned(db, userID, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if projectID == nil {
		return nil
	}
	p, err := projects.FindOwned(db, userID, *projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && p.ClientID != clientID) {
		return ErrProjectNotFound
	}
	return err
}

func ListInvoices(c *gin.Context) {
	q := invoices.Owned(database.DB, c.GetUint("user_id"))
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
	var out []invoices.Invoice
	if err := q.Order("issue_date DESC, id DESC").Find(&out).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func CreateInvoice(c *gin.Context) {
	var in createInput
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
	ci := invoices.CreateInput{
		ClientID:  in.ClientID,
		ProjectID: in.ProjectID,
		Currency:  in.Currency,
		TaxRate:   in.TaxRate,
		DueDate:   in.DueDate,
		Notes:     in.Notes,
		Items:     in.LineItems,
	}
	if in.IssueDate != nil {
		ci.IssueDate = *in.IssueDate
	}
	inv, err := invoices.Create(database.DB, user, ci)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func GetInvoice(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	inv, err := invoices.FindOwned(database.DB, c.GetUint("user_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	payments, err := invoices.Payments(database.DB, inv.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	history, err := reminders.List(database.DB, inv.UserID, inv.ID, 50)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, invoiceDetail{Invoice: inv, BalanceDue: inv.BalanceDue(), Payments: payments, Reminders: history})
}

func UpdateInvoice(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	var in updateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	inv, err := invoices.Update(database.DB, c.GetUint("user_id"), id, invoices.UpdateInput{
		TaxRate: in.TaxRate,
		DueDate: in.DueDate,
		Notes:   in.Notes,
		Items:   in.LineItems,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func DeleteInvoice(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	if err := invoices.Delete(database.DB, c.GetUint("user_id"), id); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
