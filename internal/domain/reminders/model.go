package reminders

import (
	"time"

	"gorm.io/gorm"
)

type Type string

const (
	TypeUpcoming Type = "upcoming"
	TypeDueToday Type = "due_today"
	TypeOverdue  Type = "overdue"
	TypeManual   Type = "manual"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Schedule is one reminder attempt for an invoice.
type Schedule struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	UserID    uint `gorm:"not null;index" json:"-"`
	InvoiceID uint `gorm:"not null;index:idx_reminder_invoice_type,priority:1" json:"invoice_id"`
	Type      Type `gorm:"column:reminder_type;type:varchar(20);not null;index:idx_reminder_invoice_type,priority:2" json:"reminder_type"`
	// DayOffset is days since the due date when the reminder was due:
	// negative before, zero on the day, positive after.
	DayOffset    int        `gorm:"not null;default:0;index:idx_reminder_invoice_type,priority:3" json:"day_offset"`
	Status       Status     `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	ScheduledFor time.Time  `gorm:"not null" json:"scheduled_for"`
	SentAt       *time.Time `gorm:"index" json:"sent_at,omitempty"`
	Error        string     `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Schedule) TableName() string { return "reminder_schedules" }

// Settings are a user's stored overrides. A nil field falls back to the default.
type Settings struct {
	ID         uint  `gorm:"primaryKey" json:"-"`
	UserID     uint  `gorm:"not null;uniqueIndex" json:"-"`
	Enabled    *bool `json:"enabled,omitempty"`
	DaysBefore *int  `json:"days_before,omitempty"`
	OnDueDate  *bool `json:"on_due_date,omitempty"`
	DaysAfter  []int `gorm:"serializer:json" json:"days_after,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Settings) TableName() string { return "reminder_settings" }

// LoadSettings returns the stored overrides, or nil when the user has none.
func LoadSettings(db *gorm.DB, userID uint) (*Settings, error) {
	var s Settings
	res := db.Where("user_id = ?", userID).Limit(1).Find(&s)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &s, nil
}

// SaveSettings upserts the overrides for a user.
func SaveSettings(db *gorm.DB, userID uint, in Settings) (Settings, error) {
	existing, err := LoadSettings(db, userID)
	if err != nil {
		return Settings{}, err
	}
	in.UserID = userID
	if existing != nil {
		in.ID = existing.ID
		in.CreatedAt = existing.CreatedAt
	}
	err = db.Save(&in).Error
	return in, err
}
