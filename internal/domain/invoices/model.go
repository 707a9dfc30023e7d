package invoices

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusViewed    Status = "viewed"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// Terminal statuses accept no further transitions or edits.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

type Invoice struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;uniqueIndex:idx_invoices_user_number,priority:1" json:"-"`
	ClientID    uint   `gorm:"not null;index" json:"client_id"`
	ProjectID   *uint  `gorm:"index" json:"project_id,omitempty"`
	MilestoneID *uint  `gorm:"index" json:"milestone_id,omitempty"`
	Number      string `gorm:"type:varchar(32);not null;uniqueIndex:idx_invoices_user_number,priority:2" json:"number"`
	Currency    string `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	Status      Status `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`

	Subtotal   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"subtotal"`
	TaxRate    decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"tax_rate"`
	Tax        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"tax"`
	Total      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total"`
	AmountPaid decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amount_paid"`

	IssueDate time.Time  `gorm:"not null" json:"issue_date"`
	DueDate   time.Time  `gorm:"not null;index" json:"due_date"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	ViewedAt  *time.Time `json:"viewed_at,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	Notes     string     `json:"notes,omitempty"`

	StripeSessionID       *string `json:"-"`
	StripePaymentIntentID *string `json:"-"`

	LineItems []LineItem `gorm:"constraint:OnDelete:CASCADE;" json:"line_items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LineItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	InvoiceID   uint            `gorm:"not null;index" json:"invoice_id"`
	SortIndex   int             `gorm:"not null;default:0" json:"sort_index"`
	Description string          `gorm:"not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	TimeEntryID *uint           `gorm:"index" json:"time_entry_id,omitempty"`
}

// BalanceDue is total minus amount paid.
func (i Invoice) BalanceDue() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid)
}

// FullyPaid reports a balance due of zero or less.
func (i Invoice) FullyPaid() bool {
	return !i.BalanceDue().IsPositive()
}

func Owned(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&Invoice{}).Where("user_id = ?", userID)
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("LineItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_index ASC, id ASC")
	})
}

func FindOwned(db *gorm.DB, userID, id uint) (Invoice, error) {
	var inv Invoice
	err := withItems(db).Where("id = ? AND user_id = ?", id, userID).First(&inv).Error
	return inv, notFound(err)
}

// FindForClient loads an invoice visible in the client portal. Drafts are hidden.
func FindForClient(db *gorm.DB, clientID, id uint) (Invoice, error) {
	var inv Invoice
	err := withItems(db).
		Where("id = ? AND client_id = ? AND status <> ?", id, clientID, StatusDraft).
		First(&inv).Error
	return inv, notFound(err)
}

func Load(db *gorm.DB, id uint) (Invoice, error) {
	var inv Invoice
	err := withItems(db).First(&inv, id).Error
	return inv, notFound(err)
}
