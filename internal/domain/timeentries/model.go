package timeentries

import (
	"errors"
	"time"

	"freelancer-hub/internal/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrEntryNotFound = apperr.NotFound("Time entry not found")
	ErrTimerRunning  = apperr.Conflict("A timer is already running")
	ErrNotRunning    = apperr.Conflict("Timer is not running")
	ErrAlreadyBilled = apperr.Conflict("Time entry is already invoiced")
	ErrInvalidPeriod = apperr.Validation("End time must be after start time", map[string]string{"ended_at": "gtfield"})
)

type TimeEntry struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"-"`
	ProjectID   uint       `gorm:"not null;index" json:"project_id"`
	Description string     `json:"description"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	// DurationMinutes is filled when the entry is closed.
	DurationMinutes int             `gorm:"not null;default:0" json:"duration_minutes"`
	Billable        bool            `gorm:"not null" json:"billable"`
	HourlyRate      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"hourly_rate"`
	InvoiceID       *uint           `gorm:"index" json:"invoice_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e TimeEntry) Running() bool { return e.EndedAt == nil }

func (e TimeEntry) Invoiced() bool { return e.InvoiceID != nil }

// Minutes rounds the span between start and end up to whole minutes.
func Minutes(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	m := int(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	return m
}

// Hours is the billable quantity for an entry, to two decimals.
func (e TimeEntry) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(e.DurationMinutes)).Div(decimal.NewFromInt(60)).Round(2)
}

// Amount is hours times rate; non-billable entries are worth nothing.
func (e TimeEntry) Amount() decimal.Decimal {
	if !e.Billable {
		return decimal.Zero
	}
	return e.Hours().Mul(e.HourlyRate).Round(2)
}

func Owned(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&TimeEntry{}).Where("user_id = ?", userID)
}

func FindOwned(db *gorm.DB, userID, id uint) (TimeEntry, error) {
	var e TimeEntry
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return e, ErrEntryNotFound
	}
	return e, err
}

// Close fixes the end time and the duration of an entry.
func (e *TimeEntry) Close(end time.Time) error {
	if end.Before(e.StartedAt) {
		return ErrInvalidPeriod
	}
	e.EndedAt = &end
	e.DurationMinutes = Minutes(e.StartedAt, end)
	return nil
}

// Start opens a running timer. Only one timer may run per user.
func Start(db *gorm.DB, userID, projectID uint, description string, rate decimal.Decimal, now time.Time) (TimeEntry, error) {
	e := TimeEntry{
		UserID:      userID,
		ProjectID:   projectID,
		Description: description,
		StartedAt:   now,
		Billable:    true,
		HourlyRate:  rate,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var running int64
		if err := Owned(tx, userID).Where("ended_at IS NULL").Count(&running).Error; err != nil {
			return err
		}
		if running > 0 {
			return ErrTimerRunning
		}
		return tx.Create(&e).Error
	})
	return e, err
}

// Stop closes a running timer.
func Stop(db *gorm.DB, userID, id uint, now time.Time) (TimeEntry, error) {
	e, err := FindOwned(db, userID, id)
	if err != nil {
		return e, err
	}
	if !e.Running() {
		return e, ErrNotRunning
	}
	if err := e.Close(now); err != nil {
		return e, err
	}
	res := db.Model(&TimeEntry{}).
		Where("id = ? AND ended_at IS NULL", e.ID).
		Updates(map[string]interface{}{"ended_at": e.EndedAt, "duration_minutes": e.DurationMinutes})
	if res.Error != nil {
		return e, res.Error
	}
	if res.RowsAffected == 0 {
		return e, ErrNotRunning
	}
	return e, nil
}
