package invoices

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"freelancer-hub/internal/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvoiceNotFound  = apperr.NotFound("Invoice not found")
	ErrAlreadyPaid      = apperr.Conflict("Invoice is already paid")
	ErrNothingDue       = apperr.Conflict("Invoice has no balance due")
	ErrNotPayable       = apperr.Conflict("Invoice cannot be paid in its current status")
	ErrOverpayment      = apperr.Conflict("Payment exceeds the balance due")
	ErrDuplicatePayment = apperr.Conflict("Payment was already recorded")
	ErrInvalidStatus    = apperr.Conflict("Invoice status does not allow this action")
	ErrTotalBelowPaid   = apperr.Conflict("Invoice total cannot drop below the amount already paid")
	ErrNoLineItems      = apperr.Validation("At least one line item is required", map[string]string{"line_items": "min"})
	ErrZeroTotal        = apperr.Validation("Invoice total must be greater than zero", map[string]string{"line_items": "total"})
	ErrInvalidAmount    = apperr.Validation("Amount must be greater than zero", map[string]string{"amount": "gt"})
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// ItemInput is a line item as entered by the freelancer.
type ItemInput struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TimeEntryID *uint           `json:"time_entry_id,omitempty"`
}

// BuildItems turns inputs into line items with their amounts set.
func BuildItems(in []ItemInput) ([]LineItem, error) {
	if len(in) == 0 {
		return nil, ErrNoLineItems
	}
	items := make([]LineItem, 0, len(in))
	for i, it := range in {
		if strings.TrimSpace(it.Description) == "" {
			return nil, apperr.Validation("Line item description is required",
				map[string]string{fmt.Sprintf("line_items[%d].description", i): "required"})
		}
		if !it.Quantity.IsPositive() || it.UnitPrice.IsNegative() {
			return nil, apperr.Validation("Line item quantity must be positive and price not negative",
				map[string]string{fmt.Sprintf("line_items[%d]", i): "invalid"})
		}
		items = append(items, LineItem{
			SortIndex:   i,
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Quantity.Mul(it.UnitPrice).Round(2),
			TimeEntryID: it.TimeEntryID,
		})
	}
	return items, nil
}

// Totals computes subtotal, tax and total. Tax is a percentage of the subtotal.
func Totals(items []LineItem, taxRate decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Amount)
	}
	tax = subtotal.Mul(taxRate).Div(hundred).Round(2)
	return subtotal, tax, subtotal.Add(tax)
}

func (i *Invoice) applyTotals() {
	i.Subtotal, i.Tax, i.Total = Totals(i.LineItems, i.TaxRate)
}

// CheckCheckout rejects payment attempts that must never reach the
// payment provider.
func CheckCheckout(inv Invoice) error {
	switch {
	case inv.Status == StatusPaid:
		return ErrAlreadyPaid
	case inv.Status == StatusDraft || inv.Status == StatusCancelled:
		return ErrNotPayable
	case inv.FullyPaid():
		return ErrNothingDue
	}
	return nil
}

// CanCancel lists the statuses a freelancer may cancel from.
func CanCancel(s Status) bool {
	switch s {
	case StatusDraft, StatusSent, StatusViewed, StatusOverdue:
		return true
	}
	return false
}

// Remindable statuses are the ones the reminder job looks at.
func Remindable(s Status) bool {
	return s == StatusSent || s == StatusOverdue
}

const numberPrefix = "INV-"

func FormatNumber(n int) string {
	return fmt.Sprintf("%s%04d", numberPrefix, n)
}

// NextNumber returns the next sequential number for a user's invoices.
func NextNumber(db *gorm.DB, userID uint) (string, error) {
	var numbers []string
	if err := db.Model(&Invoice{}).
		Where("user_id = ? AND number LIKE ?", userID, numberPrefix+"%").
		Pluck("number", &numbers).Error; err != nil {
		return "", err
	}
	max := 0
	for _, n := range numbers {
		v, err := strconv.Atoi(strings.TrimPrefix(n, numberPrefix))
		if err == nil && v > max {
			max = v
		}
	}
	return FormatNumber(max + 1), nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvoiceNotFound
	}
	return err
}
