package invoices

import (
	"errors"
	"strings"
	"time"

	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/billing"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/timeentries"
	"freelancer-hub/internal/domain/users"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateInput struct {
	ClientID    uint
	ProjectID   *uint
	MilestoneID *uint
	Currency    string
	TaxRate     decimal.Decimal
	IssueDate   time.Time
	DueDate     *time.Time
	Notes       string
	Items       []ItemInput
}

// Create stores a draft invoice with its next number. A missing due date
// falls back to the user's payment terms.
func Create(db *gorm.DB, user users.User, in CreateInput) (Invoice, error) {
	items, err := BuildItems(in.Items)
	if err != nil {
		return Invoice{}, err
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(hundred) {
		return Invoice{}, apperr.Validation("Tax rate must be between 0 and 100", map[string]string{"tax_rate": "range"})
	}
	issue := in.IssueDate
	if issue.IsZero() {
		issue = time.Now().UTC()
	}
	due := issue.AddDate(0, 0, user.PaymentTermsDays)
	if in.DueDate != nil {
		due = *in.DueDate
	}
	if due.Before(issue) {
		return Invoice{}, apperr.Validation("Due date must not be before the issue date", map[string]string{"due_date": "gtefield"})
	}
	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = user.DefaultCurrency
	}

	inv := Invoice{
		UserID:      user.ID,
		ClientID:    in.ClientID,
		ProjectID:   in.ProjectID,
		MilestoneID: in.MilestoneID,
		Currency:    currency,
		Status:      StatusDraft,
		TaxRate:     in.TaxRate,
		IssueDate:   issue,
		DueDate:     due,
		Notes:       in.Notes,
		LineItems:   items,
	}
	inv.applyTotals()
	if !inv.Total.IsPositive() {
		return Invoice{}, ErrZeroTotal
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		number, err := NextNumber(tx, user.ID)
		if err != nil {
			return err
		}
		inv.Number = number
		return tx.Create(&inv).Error
	})
	return inv, err
}

type UpdateInput struct {
	TaxRate *decimal.Decimal
	DueDate *time.Time
	Notes   *string
	Items   []ItemInput
}

// Update edits a non-terminal invoice. Line items are replaced as a whole and
// the new total may not fall below what was already paid. A total brought
// down to exactly the paid amount settles the invoice.
func Update(db *gorm.DB, userID, id uint, in UpdateInput) (Invoice, error) {
	inv, err := FindOwned(db, userID, id)
	if err != nil {
		return inv, err
	}
	if inv.Status.Terminal() {
		return inv, ErrInvalidStatus
	}
	if in.TaxRate != nil {
		inv.TaxRate = *in.TaxRate
	}
	if in.DueDate != nil {
		inv.DueDate = *in.DueDate
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}
	replaceItems := in.Items != nil
	if replaceItems {
		items, err := BuildItems(in.Items)
		if err != nil {
			return inv, err
		}
		inv.LineItems = items
	}
	inv.applyTotals()
	if !inv.Total.IsPositive() {
		return inv, ErrZeroTotal
	}
	if inv.Total.LessThan(inv.AmountPaid) {
		return inv, ErrTotalBelowPaid
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if replaceItems {
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&LineItem{}).Error; err != nil {
				return err
			}
			for i := range inv.LineItems {
				inv.LineItems[i].ID = 0
				inv.LineItems[i].InvoiceID = inv.ID
			}
			if err := tx.Create(&inv.LineItems).Error; err != nil {
				return err
			}
		}
		res := tx.Model(&Invoice{}).
			Where("id = ? AND status = ? AND amount_paid <= ?", inv.ID, inv.Status, inv.Total).
			Updates(map[string]interface{}{
				"tax_rate": inv.TaxRate,
				"subtotal": inv.Subtotal,
				"tax":      inv.Tax,
				"total":    inv.Total,
				"due_date": inv.DueDate,
				"notes":    inv.Notes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cur Invoice
			if err := tx.First(&cur, inv.ID).Error; err != nil {
				return notFound(err)
			}
			if cur.Status != inv.Status {
				return ErrInvalidStatus
			}
			return ErrTotalBelowPaid
		}
		_, err := settle(tx, inv, time.Now().UTC(), nil)
		return err
	})
	if err != nil {
		return inv, err
	}
	return Load(db, inv.ID)
}

// Delete removes a draft. Anything that has been sent is cancelled instead.
func Delete(db *gorm.DB, userID, id uint) error {
	inv, err := FindOwned(db, userID, id)
	if err != nil {
		return err
	}
	if inv.Status != StatusDraft {
		return ErrInvalidStatus
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&timeentries.TimeEntry{}).Where("invoice_id = ?", inv.ID).Update("invoice_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&LineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Invoice{}, inv.ID).Error
	})
}

// MarkSent moves a draft with something to pay to sent.
func MarkSent(db *gorm.DB, userID, id uint, now time.Time) (Invoice, error) {
	res := db.Model(&Invoice{}).
		Where("id = ? AND user_id = ? AND status = ? AND total > 0", id, userID, StatusDraft).
		Updates(map[string]interface{}{"status": StatusSent, "sent_at": now})
	if res.Error != nil {
		return Invoice{}, res.Error
	}
	if res.RowsAffected == 0 {
		inv, err := FindOwned(db, userID, id)
		if err != nil {
			return Invoice{}, err
		}
		if inv.Status == StatusDraft {
			return Invoice{}, ErrZeroTotal
		}
		return Invoice{}, ErrInvalidStatus
	}
	return Load(db, id)
}

// MarkViewed records the client's first view. Only a sent invoice moves to
// viewed; later views leave the status alone.
func MarkViewed(db *gorm.DB, id uint, now time.Time) error {
	return db.Model(&Invoice{}).
		Where("id = ? AND status = ? AND viewed_at IS NULL", id, StatusSent).
		Updates(map[string]interface{}{"status": StatusViewed, "viewed_at": now}).Error
}

func Cancel(db *gorm.DB, userID, id uint) (Invoice, error) {
	inv, err := FindOwned(db, userID, id)
	if err != nil {
		return inv, err
	}
	if !CanCancel(inv.Status) {
		return inv, ErrInvalidStatus
	}
	res := db.Model(&Invoice{}).
		Where("id = ? AND status = ?", inv.ID, inv.Status).
		Update("status", StatusCancelled)
	if res.Error != nil {
		return inv, res.Error
	}
	if res.RowsAffected == 0 {
		return inv, ErrInvalidStatus
	}
	return Load(db, inv.ID)
}

// MarkOverdue flips every sent invoice whose due date has passed to overdue.
// Running it again changes nothing.
func MarkOverdue(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Model(&Invoice{}).
		Where("status = ? AND due_date < ?", StatusSent, now).
		Update("status", StatusOverdue)
	return res.RowsAffected, res.Error
}

type PaymentInput struct {
	Amount                decimal.Decimal
	Method                billing.Method
	Note                  string
	StripeSessionID       string
	StripePaymentIntentID string
	PaidAt                time.Time
}

// RecordPayment stores a completed payment and applies it to the invoice in
// one transaction. amount_paid never exceeds total, and the invoice becomes
// paid exactly when amount_paid reaches total. A Stripe session is applied
// at most once.
func RecordPayment(db *gorm.DB, invoiceID uint, in PaymentInput) (Invoice, error) {
	if !in.Amount.IsPositive() {
		return Invoice{}, ErrInvalidAmount
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = time.Now().UTC()
	}
	if in.Method == "" {
		in.Method = billing.MethodManual
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var inv Invoice
		if err := tx.First(&inv, invoiceID).Error; err != nil {
			return notFound(err)
		}

		p := billing.Payment{
			InvoiceID: inv.ID,
			UserID:    inv.UserID,
			Amount:    in.Amount,
			Status:    billing.PaymentCompleted,
			Method:    in.Method,
			Note:      in.Note,
			PaidAt:    in.PaidAt,
		}
		if in.StripeSessionID != "" {
			var seen int64
			if err := tx.Model(&billing.Payment{}).Where("stripe_session_id = ?", in.StripeSessionID).Count(&seen).Error; err != nil {
				return err
			}
			if seen > 0 {
				return ErrDuplicatePayment
			}
			sid := in.StripeSessionID
			p.StripeSessionID = &sid
		}
		if in.StripePaymentIntentID != "" {
			pid := in.StripePaymentIntentID
			p.StripePaymentIntentID = &pid
		}

		switch inv.Status {
		case StatusPaid:
			return ErrAlreadyPaid
		case StatusDraft, StatusCancelled:
			return ErrNotPayable
		}

		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		res := tx.Model(&Invoice{}).
			Where("id = ? AND status NOT IN ? AND amount_paid + ? <= total", inv.ID, unpayable, in.Amount).
			Update("amount_paid", gorm.Expr("amount_paid + ?", in.Amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOverpayment
		}

		var extra map[string]interface{}
		if p.StripePaymentIntentID != nil {
			extra = map[string]interface{}{"stripe_payment_intent_id": *p.StripePaymentIntentID}
		}
		_, err := settle(tx, inv, in.PaidAt, extra)
		return err
	})
	if err != nil {
		return Invoice{}, err
	}
	return Load(db, invoiceID)
}

// RecordUnapplied keeps a Stripe charge the invoice refused as a
// needs_refund payment. amount_paid is untouched. A session already on
// record stores nothing new.
func RecordUnapplied(db *gorm.DB, invoiceID uint, in PaymentInput, reason string) (billing.Payment, bool, error) {
	var p billing.Payment
	if in.StripeSessionID == "" {
		return p, false, ErrInvalidAmount
	}
	if in.PaidAt.IsZero() {
		in.PaidAt = time.Now().UTC()
	}
	created := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var inv Invoice
		if err := tx.First(&inv, invoiceID).Error; err != nil {
			return notFound(err)
		}
		err := tx.Where("stripe_session_id = ?", in.StripeSessionID).First(&p).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		sid := in.StripeSessionID
		p = billing.Payment{
			InvoiceID:       inv.ID,
			UserID:          inv.UserID,
			Amount:          in.Amount,
			Status:          billing.PaymentNeedsRefund,
			Method:          billing.MethodStripe,
			Note:            reason,
			StripeSessionID: &sid,
			PaidAt:          in.PaidAt,
		}
		if in.StripePaymentIntentID != "" {
			pid := in.StripePaymentIntentID
			p.StripePaymentIntentID = &pid
		}
		created = true
		return tx.Create(&p).Error
	})
	return p, created, err
}

var unpayable = []Status{StatusDraft, StatusPaid, StatusCancelled}

// settle marks the invoice paid once a positive amount_paid covers the
// total, and carries a linked milestone along. It reports whether the
// invoice changed.
func settle(tx *gorm.DB, inv Invoice, paidAt time.Time, extra map[string]interface{}) (bool, error) {
	paid := map[string]interface{}{"status": StatusPaid, "paid_at": paidAt}
	for k, v := range extra {
		paid[k] = v
	}
	res := tx.Model(&Invoice{}).
		Where("id = ? AND amount_paid > 0 AND amount_paid >= total AND status NOT IN ?", inv.ID, unpayable).
		Updates(paid)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if inv.MilestoneID == nil {
		return true, nil
	}
	err := projects.MarkPaid(tx, *inv.MilestoneID, paidAt)
	if errors.Is(err, projects.ErrInvalidTransition) || errors.Is(err, projects.ErrMilestoneNotFound) {
		return true, nil
	}
	return true, err
}

// SetCheckoutSession remembers the Stripe session opened for an invoice.
func SetCheckoutSession(db *gorm.DB, id uint, sessionID string) error {
	return db.Model(&Invoice{}).Where("id = ?", id).Update("stripe_session_id", sessionID).Error
}

// ClearCheckoutSession forgets an expired session, if it is still the current one.
func ClearCheckoutSession(db *gorm.DB, sessionID string) error {
	return db.Model(&Invoice{}).Where("stripe_session_id = ?", sessionID).Update("stripe_session_id", nil).Error
}

func Payments(db *gorm.DB, invoiceID uint) ([]billing.Payment, error) {
	var ps []billing.Payment
	err := db.Where("invoice_id = ?", invoiceID).Order("paid_at ASC, id ASC").Find(&ps).Error
	return ps, err
}
