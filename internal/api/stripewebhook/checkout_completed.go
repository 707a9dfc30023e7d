package stripewebhooks

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"freelancer-hub/database"
	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/invoices"
	stripegw "freelancer-hub/internal/infra/stripe"
	"freelancer-hub/internal/metrics"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v75"
)

func handleCheckoutSessionCompleted(session *stripe.CheckoutSession) error {
	if !stripegw.SessionPaid(session) {
		return fmt.Errorf("%w: payment_status=%s", errIgnored, session.PaymentStatus)
	}
	invoiceID, err := invoiceIDFromSession(session)
	if err != nil {
		return fmt.Errorf("%w: %v", errIgnored, err)
	}

	paidAt := time.Now().UTC()
	if session.Created > 0 {
		paidAt = time.Unix(session.Created, 0).UTC()
	}
	in := invoices.PaymentInput{
		Amount:                stripegw.FromMinorUnits(session.AmountTotal, string(session.Currency)),
		Method:                billing.MethodStripe,
		StripeSessionID:       session.ID,
		StripePaymentIntentID: stripegw.PaymentIntentID(session),
		PaidAt:                paidAt,
	}
	_, err = invoices.RecordPayment(database.DB, invoiceID, in)
	switch {
	case err == nil:
		metrics.PaymentsRecorded.WithLabelValues(string(billing.MethodStripe)).Inc()
		return nil
	case errors.Is(err, invoices.ErrDuplicatePayment):
		return fmt.Errorf("%w: %v", errIgnored, err)
	case errors.Is(err, invoices.ErrAlreadyPaid):
		return keepUnapplied(invoiceID, in, "already_paid", err)
	case errors.Is(err, invoices.ErrOverpayment):
		return keepUnapplied(invoiceID, in, "overpayment", err)
	case errors.Is(err, invoices.ErrNotPayable):
		return keepUnapplied(invoiceID, in, "not_payable", err)
	case errors.Is(err, invoices.ErrInvoiceNotFound):
		metrics.PaymentsUnapplied.WithLabelValues("invoice_not_found").Inc()
		log.Error().Err(err).Uint("invoice_id", invoiceID).Str("session_id", session.ID).
			Str("amount", in.Amount.String()).Msg("stripe charge for unknown invoice needs a refund")
		return fmt.Errorf("%w: %v", errIgnored, err)
	}
	return err
}

// keepUnapplied records a captured charge the invoice refused so it shows
// up for refund, then acknowledges the event.
func keepUnapplied(invoiceID uint, in invoices.PaymentInput, reason string, cause error) error {
	p, created, err := invoices.RecordUnapplied(database.DB, invoiceID, in, reason)
	if err != nil {
		return err
	}
	if created {
		metrics.PaymentsUnapplied.WithLabelValues(reason).Inc()
		log.Error().Err(cause).
			Uint("invoice_id", invoiceID).
			Uint("payment_id", p.ID).
			Str("session_id", in.StripeSessionID).
			Str("amount", in.Amount.String()).
			Msg("stripe charge not applied, needs a refund")
	}
	return fmt.Errorf("%w: %v", errIgnored, cause)
}

func handleCheckoutSessionExpired(session *stripe.CheckoutSession) error {
	return invoices.ClearCheckoutSession(database.DB, session.ID)
}

// invoiceIDFromSession reads metadata.invoice_id, falling back to the
// client reference id.
func invoiceIDFromSession(s *stripe.CheckoutSession) (uint, error) {
	raw := ""
	if s.Metadata != nil {
		raw = s.Metadata["invoice_id"]
	}
	if raw == "" {
		raw = s.ClientReferenceID
	}
	if raw == "" {
		return 0, errors.New("missing invoice_id (metadata.invoice_id or client_reference_id)")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid invoice_id %q: %w", raw, err)
	}
	return uint(id), nil
}
