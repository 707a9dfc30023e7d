package invoices

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"freelancer-hub/config"
	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/invoices"
	"freelancer-hub/internal/domain/users"
	"freelancer-hub/internal/infra/pdf"
	"freelancer-hub/internal/jobs"
	"freelancer-hub/internal/metrics"
	"freelancer-hub/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrNoClientEmail = apperr.Validation("Client has no email address", map[string]string{"email": "required"})

// SendInvoice moves a draft to sent and emails the client. A failed email
// does not undo the status change; the response says whether it went out.
func SendInvoice(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	userID := c.GetUint("user_id")
	inv, err := invoices.FindOwned(database.DB, userID, id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	var client clients.Client
	if err := database.DB.First(&client, inv.ClientID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	if client.Email == "" {
		respond.Error(c, ErrNoClientEmail)
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	inv, err = invoices.MarkSent(database.DB, userID, id, services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}

	sent := true
	msg, err := notify.InvoiceSent(config.App.AppURL, user, client, inv)
	if err == nil {
		err = services.Mailer.Send(c.Request.Context(), msg)
	}
	if err != nil {
		sent = false
		log.Warn().Err(err).Uint("invoice_id", inv.ID).Msg("invoice email not sent")
	}
	c.JSON(http.StatusOK, gin.H{"invoice": inv, "email_sent": sent})
}

func CancelInvoice(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	inv, err := invoices.Cancel(database.DB, c.GetUint("user_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// RecordPayment applies a payment received outside Stripe.
func RecordPayment(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Amount decimal.Decimal `json:"amount"`
		Note   string          `json:"note" binding:"max=500"`
		PaidAt *time.Time      `json:"paid_at"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	inv, err := invoices.FindOwned(database.DB, c.GetUint("user_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if inv.Status == invoices.StatusDraft {
		respond.Error(c, invoices.ErrNotPayable)
		return
	}

	pi := invoices.PaymentInput{
		Amount: in.Amount.Round(2),
		Method: billing.MethodManual,
		Note:   in.Note,
		PaidAt: services.Now(),
	}
	if in.PaidAt != nil {
		pi.PaidAt = *in.PaidAt
	}
	inv, err = invoices.RecordPayment(database.DB, inv.ID, pi)
	if err != nil {
		respond.Error(c, err)
		return
	}
	metrics.PaymentsRecorded.WithLabelValues(string(billing.MethodManual)).Inc()
	c.JSON(http.StatusOK, inv)
}

// RemindInvoice sends a reminder now, outside the daily schedule.
func RemindInvoice(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	inv, err := invoices.FindOwned(database.DB, c.GetUint("user_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	switch inv.Status {
	case invoices.StatusSent, invoices.StatusViewed, invoices.StatusOverdue:
	default:
		respond.Error(c, invoices.ErrInvalidStatus)
		return
	}

	job := &jobs.Reminders{
		DB:     database.DB,
		Mailer: services.Mailer,
		AppURL: config.App.AppURL,
		Log:    log.Logger,
		Now:    services.Now,
	}
	row, err := job.SendManual(c.Request.Context(), inv)
	if err != nil {
		if row.ID == 0 {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Reminder could not be delivered", "reminder": row})
		return
	}
	c.JSON(http.StatusOK, row)
}

func InvoicePDF(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	inv, err := invoices.FindOwned(database.DB, c.GetUint("user_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	WritePDF(c, inv)
}

// WritePDF renders inv with its sender and recipient and streams it.
func WritePDF(c *gin.Context, inv invoices.Invoice) {
	var from users.User
	if err := database.DB.First(&from, inv.UserID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	var to clients.Client
	if err := database.DB.First(&to, inv.ClientID).Error; err != nil {
		respond.Error(c, err)
		return
	}
	var buf bytes.Buffer
	if err := pdf.RenderInvoice(&buf, inv, from, to); err != nil {
		respond.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, inv.Number))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
