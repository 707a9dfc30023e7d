package invoices

import (
	"errors"
	"fmt"
	"time"

	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/projects"
	"freelancer-hub/internal/domain/timeentries"
	"freelancer-hub/internal/domain/users"

	"gorm.io/gorm"
)

var (
	ErrMilestoneNotApproved = apperr.Conflict("Only approved milestones can be invoiced")
	ErrMilestoneInvoiced    = apperr.Conflict("Milestone already has an open invoice")
	ErrNoBillableEntries    = apperr.Validation("No billable, uninvoiced time entries selected", map[string]string{"entry_ids": "min"})
)

// FromMilestone drafts an invoice for an approved milestone. The invoice is
// linked to the milestone so paying it marks the milestone paid.
func FromMilestone(db *gorm.DB, user users.User, milestoneID uint, due *time.Time) (Invoice, error) {
	m, err := projects.FindOwnedMilestone(db, user.ID, milestoneID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Invoice{}, projects.ErrMilestoneNotFound
	}
	if err != nil {
		return Invoice{}, err
	}
	if m.Status != projects.MilestoneApproved {
		return Invoice{}, ErrMilestoneNotApproved
	}
	var open int64
	if err := db.Model(&Invoice{}).
		Where("milestone_id = ? AND status <> ?", m.ID, StatusCancelled).
		Count(&open).Error; err != nil {
		return Invoice{}, err
	}
	if open > 0 {
		return Invoice{}, ErrMilestoneInvoiced
	}
	var p projects.Project
	if err := db.First(&p, m.ProjectID).Error; err != nil {
		return Invoice{}, err
	}

	mid, pid := m.ID, p.ID
	return Create(db, user, CreateInput{
		ClientID:    p.ClientID,
		ProjectID:   &pid,
		MilestoneID: &mid,
		DueDate:     due,
		Items: []ItemInput{{
			Description: fmt.Sprintf("%s: %s", p.Name, m.Title),
			Quantity:    one,
			UnitPrice:   m.Amount,
		}},
	})
}

type FromTimeInput struct {
	ClientID  uint
	ProjectID *uint
	EntryIDs  []uint
	DueDate   *time.Time
	Notes     string
}

// FromTimeEntries bills closed, billable, uninvoiced entries of one client's
// projects. The invoice and the entries' invoice_id commit together; an
// entry claimed concurrently by another invoice aborts the whole thing.
func FromTimeEntries(db *gorm.DB, user users.User, in FromTimeInput) (Invoice, error) {
	if len(in.EntryIDs) == 0 {
		return Invoice{}, ErrNoBillableEntries
	}
	var entries []timeentries.TimeEntry
	q := db.Model(&timeentries.TimeEntry{}).
		Joins("JOIN projects ON projects.id = time_entries.project_id").
		Where("time_entries.id IN ? AND time_entries.user_id = ? AND projects.client_id = ?", in.EntryIDs, user.ID, in.ClientID).
		Where("time_entries.ended_at IS NOT NULL AND time_entries.billable = ? AND time_entries.invoice_id IS NULL", true).
		Order("time_entries.started_at ASC")
	if in.ProjectID != nil {
		q = q.Where("time_entries.project_id = ?", *in.ProjectID)
	}
	if err := q.Find(&entries).Error; err != nil {
		return Invoice{}, err
	}
	if len(entries) == 0 {
		return Invoice{}, ErrNoBillableEntries
	}

	items := make([]ItemInput, 0, len(entries))
	for _, e := range entries {
		id := e.ID
		desc := e.Description
		if desc == "" {
			desc = "Time on " + e.StartedAt.UTC().Format("2006-01-02")
		}
		items = append(items, ItemInput{
			Description: desc,
			Quantity:    e.Hours(),
			UnitPrice:   e.HourlyRate,
			TimeEntryID: &id,
		})
	}

	var inv Invoice
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = Create(tx, user, CreateInput{
			ClientID:  in.ClientID,
			ProjectID: in.ProjectID,
			DueDate:   in.DueDate,
			Notes:     in.Notes,
			Items:     items,
		})
		if err != nil {
			return err
		}
		ids := make([]uint, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		res := tx.Model(&timeentries.TimeEntry{}).
			Where("id IN ? AND invoice_id IS NULL", ids).
			Update("invoice_id", inv.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(ids)) {
			return timeentries.ErrAlreadyBilled
		}
		return nil
	})
	return inv, err
}
