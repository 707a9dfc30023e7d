package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	// PaymentNeedsRefund is money captured by Stripe that the invoice could
	// not take. The freelancer refunds it by hand.
	PaymentNeedsRefund PaymentStatus = "needs_refund"
)

type Method string

const (
	MethodStripe Method = "stripe"
	MethodManual Method = "manual"
)

// Payment is one settlement against an invoice. The invoice's amount_paid
// is the sum of its completed payments.
type Payment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	InvoiceID uint            `gorm:"not null;index" json:"invoice_id"`
	UserID    uint            `gorm:"not null;index" json:"-"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status    PaymentStatus   `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	Method    Method          `gorm:"type:varchar(20);not null;default:'manual'" json:"method"`
	Note      string          `json:"note,omitempty"`

	StripeSessionID       *string `gorm:"uniqueIndex" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID *string `json:"stripe_payment_intent_id,omitempty"`

	PaidAt    time.Time `gorm:"not null" json:"paid_at"`
	CreatedAt time.Time `json:"created_at"`
}

// CompletedTotal sums completed payments; other statuses never count.
func CompletedTotal(payments []Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		if p.Status == PaymentCompleted {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}
