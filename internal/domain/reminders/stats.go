package reminders

import (
	"time"

	"gorm.io/gorm"
)

type Stats struct {
	Sent          int `json:"sent"`
	Failed        int `json:"failed"`
	Effective     int `json:"effective"`
	Effectiveness int `json:"effectiveness"`
}

type sentRow struct {
	Status Status
	SentAt *time.Time
	PaidAt *time.Time
}

// ComputeStats summarises a user's reminders over the trailing window.
func ComputeStats(db *gorm.DB, userID uint, now time.Time) (Stats, error) {
	since := now.Add(-StatsWindow)
	var rows []sentRow
	err := db.Table("reminder_schedules").
		Select("reminder_schedules.status, reminder_schedules.sent_at, invoices.paid_at").
		Joins("JOIN invoices ON invoices.id = reminder_schedules.invoice_id").
		Where("reminder_schedules.user_id = ?", userID).
		Where("((reminder_schedules.status = ? AND reminder_schedules.sent_at >= ?) OR (reminder_schedules.status = ? AND reminder_schedules.updated_at >= ?))",
			StatusSent, since, StatusFailed, since).
		Scan(&rows).Error
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	for _, r := range rows {
		if r.Status == StatusFailed {
			st.Failed++
			continue
		}
		if r.SentAt == nil || r.SentAt.Before(since) {
			continue
		}
		st.Sent++
		if Effective(*r.SentAt, r.PaidAt) {
			st.Effective++
		}
	}
	st.Effectiveness = Effectiveness(st.Effective, st.Sent)
	return st, nil
}

// AlreadySent reports whether a reminder of this type and offset was
// delivered for the invoice. Failed attempts do not count.
func AlreadySent(db *gorm.DB, invoiceID uint, d Due) (bool, error) {
	var n int64
	err := db.Model(&Schedule{}).
		Where("invoice_id = ? AND reminder_type = ? AND day_offset = ? AND status = ?", invoiceID, d.Type, d.Offset, StatusSent).
		Count(&n).Error
	return n > 0, err
}

func List(db *gorm.DB, userID uint, invoiceID uint, limit int) ([]Schedule, error) {
	q := db.Where("user_id = ?", userID)
	if invoiceID != 0 {
		q = q.Where("invoice_id = ?", invoiceID)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []Schedule
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}
