package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"freelancer-hub/config"
	"freelancer-hub/database"
	invoicesapi "freelancer-hub/internal/api/invoices"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/clients"
	"freelancer-hub/internal/domain/invoices"
	stripegw "freelancer-hub/internal/infra/stripe"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var ErrPaymentPending = apperr.Conflict("A payment for this invoice is already being processed")

type portalInvoice struct {
	invoices.Invoice
	BalanceDue string            `json:"balance_due"`
	Payments   []billing.Payment `json:"payments,omitempty"`
}

func ListInvoices(c *gin.Context) {
	var out []invoices.Invoice
	err := database.DB.
		Where("client_id = ? AND status <> ?", c.GetUint("client_id"), invoices.StatusDraft).
		Order("issue_date DESC, id DESC").
		Find(&out).Error
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetInvoice returns one invoice and records the client's first view.
func GetInvoice(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	inv, err := invoices.FindForClient(database.DB, c.GetUint("client_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if inv.Status == invoices.StatusSent {
		if err := invoices.MarkViewed(database.DB, inv.ID, services.Now()); err != nil {
			log.Warn().Err(err).Uint("invoice_id", inv.ID).Msg("mark invoice viewed")
		} else if inv, err = invoices.Load(database.DB, inv.ID); err != nil {
			respond.Error(c, err)
			return
		}
	}
	payments, err := invoices.Payments(database.DB, inv.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, portalInvoice{Invoice: inv, BalanceDue: inv.BalanceDue().StringFixed(2), Payments: payments})
}

func InvoicePDF(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	inv, err := invoices.FindForClient(database.DB, c.GetUint("client_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	invoicesapi.WritePDF(c, inv)
}

// Checkout opens a Stripe Checkout session for the balance due. An invoice
// has at most one payable session at a time.
func Checkout(c *gin.Context) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}
	inv, err := invoices.FindForClient(database.DB, c.GetUint("client_id"), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := invoices.CheckCheckout(inv); err != nil {
		respond.Error(c, err)
		return
	}
	gw := services.Checkout
	if gw == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Online payment is not available"})
		return
	}
	var client clients.Client
	if err := database.DB.First(&client, inv.ClientID).Error; err != nil {
		respond.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	prev, reuse, err := previousSession(ctx, gw, inv)
	if err != nil {
		checkoutError(c, inv, err)
		return
	}
	if reuse {
		c.JSON(http.StatusOK, prev)
		return
	}

	back := fmt.Sprintf("%s/portal/invoices/%d", config.App.AppURL, inv.ID)
	sess, err := gw.CreateCheckout(ctx, stripegw.CheckoutRequest{
		InvoiceID:     inv.ID,
		UserID:        inv.UserID,
		InvoiceNumber: inv.Number,
		Description:   inv.Notes,
		Amount:        inv.BalanceDue(),
		Currency:      inv.Currency,
		CustomerEmail: client.Email,
		SuccessURL:    back + "?paid=1",
		CancelURL:     back,
	})
	if err != nil {
		checkoutError(c, inv, err)
		return
	}
	if err := invoices.SetCheckoutSession(database.DB, inv.ID, sess.ID); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// previousSession looks at the session already stored on inv. An open one
// for the current balance is handed out again. Any other open one is expired
// first, and a completed one that no payment row accounts for yet blocks a
// second charge.
func previousSession(ctx context.Context, gw stripegw.CheckoutGateway, inv invoices.Invoice) (stripegw.CheckoutSession, bool, error) {
	if inv.StripeSessionID == nil || *inv.StripeSessionID == "" {
		return stripegw.CheckoutSession{}, false, nil
	}
	prev, err := gw.LookupCheckout(ctx, *inv.StripeSessionID)
	if err != nil {
		return prev, false, err
	}
	if prev.Complete() {
		var seen int64
		if err := database.DB.Model(&billing.Payment{}).Where("stripe_session_id = ?", prev.ID).Count(&seen).Error; err != nil {
			return prev, false, err
		}
		if seen == 0 {
			return prev, false, ErrPaymentPending
		}
		return prev, false, nil
	}
	if !prev.Open() {
		return prev, false, nil
	}
	want, err := stripegw.ToMinorUnits(inv.BalanceDue(), inv.Currency)
	if err == nil && want == prev.AmountTotal {
		return prev, true, nil
	}
	return prev, false, gw.ExpireCheckout(ctx, prev.ID)
}

func checkoutError(c *gin.Context, inv invoices.Invoice, err error) {
	var ae *apperr.Error
	switch {
	case errors.Is(err, stripegw.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Online payment is not available"})
	case errors.As(err, &ae):
		respond.Error(c, err)
	default:
		log.Error().Err(err).Uint("invoice_id", inv.ID).Msg("checkout session")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not start the payment"})
	}
}
