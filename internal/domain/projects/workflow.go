package projects

import (
	"errors"
	"time"

	"freelancer-hub/internal/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrMilestoneNotFound = apperr.NotFound("Milestone not found")
	ErrInvalidTransition = apperr.Conflict("Milestone status does not allow this action")
	ErrOverBudget        = apperr.Conflict("Milestone amounts exceed the project budget")
	ErrFeedbackRequired  = apperr.Validation("Feedback is required", map[string]string{"feedback": "required"})
)

var transitions = map[MilestoneStatus][]MilestoneStatus{
	MilestonePending:         {MilestoneInProgress},
	MilestoneInProgress:      {MilestonePendingApproval},
	MilestonePendingApproval: {MilestoneApproved, MilestoneInProgress},
	MilestoneApproved:        {MilestonePaid},
}

// CanTransition reports whether a milestone may move from one status to another.
func CanTransition(from, to MilestoneStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transition moves a milestone only if it is still in `from`; the status
// guard in the WHERE clause makes concurrent transitions lose cleanly.
func transition(tx *gorm.DB, id uint, from, to MilestoneStatus, extra map[string]interface{}) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&Milestone{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func StartMilestone(db *gorm.DB, userID, milestoneID uint) (Milestone, error) {
	m, err := FindOwnedMilestone(db, userID, milestoneID)
	if err != nil {
		return Milestone{}, notFound(err)
	}
	if err := transition(db, m.ID, m.Status, MilestoneInProgress, nil); err != nil {
		return Milestone{}, err
	}
	return reload(db, m.ID)
}

// SubmitMilestone hands a milestone to the client for approval. Deliverables
// that were pending or rejected are marked submitted.
func SubmitMilestone(db *gorm.DB, userID, milestoneID uint, now time.Time) (Milestone, error) {
	m, err := FindOwnedMilestone(db, userID, milestoneID)
	if err != nil {
		return Milestone{}, notFound(err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, m.ID, m.Status, MilestonePendingApproval, map[string]interface{}{"submitted_at": now}); err != nil {
			return err
		}
		return tx.Model(&Deliverable{}).
			Where("milestone_id = ? AND status IN ?", m.ID, []DeliverableStatus{DeliverablePending, DeliverableRejected}).
			Updates(map[string]interface{}{"status": DeliverableSubmitted, "feedback": ""}).Error
	})
	if err != nil {
		return Milestone{}, err
	}
	return reload(db, m.ID)
}

// ApproveMilestone is the client's sign-off. Only a milestone awaiting
// approval can be approved; its deliverables are approved with it.
func ApproveMilestone(db *gorm.DB, clientID, milestoneID uint, now time.Time) (Milestone, error) {
	m, err := FindClientMilestone(db, clientID, milestoneID)
	if err != nil {
		return Milestone{}, notFound(err)
	}
	if m.Status != MilestonePendingApproval {
		return Milestone{}, ErrInvalidTransition
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, m.ID, MilestonePendingApproval, MilestoneApproved, map[string]interface{}{"approved_at": now}); err != nil {
			return err
		}
		return tx.Model(&Deliverable{}).
			Where("milestone_id = ?", m.ID).
			Update("status", DeliverableApproved).Error
	})
	if err != nil {
		return Milestone{}, err
	}
	return reload(db, m.ID)
}

// RequestRevision sends a milestone back to the freelancer: every deliverable
// is rejected with the feedback and the milestone returns to in_progress.
// Both changes commit together or not at all.
func RequestRevision(db *gorm.DB, clientID, milestoneID uint, feedback string) (Milestone, error) {
	if feedback == "" {
		return Milestone{}, ErrFeedbackRequired
	}
	m, err := FindClientMilestone(db, clientID, milestoneID)
	if err != nil {
		return Milestone{}, notFound(err)
	}
	if m.Status != MilestonePendingApproval {
		return Milestone{}, ErrInvalidTransition
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, m.ID, MilestonePendingApproval, MilestoneInProgress, map[string]interface{}{"submitted_at": nil}); err != nil {
			return err
		}
		return tx.Model(&Deliverable{}).
			Where("milestone_id = ?", m.ID).
			Updates(map[string]interface{}{
				"status":   DeliverableRejected,
				"feedback": feedback,
			}).Error
	})
	if err != nil {
		return Milestone{}, err
	}
	return reload(db, m.ID)
}

// MarkPaid moves an approved milestone to paid. Already-paid milestones are left alone.
func MarkPaid(db *gorm.DB, milestoneID uint, now time.Time) error {
	var m Milestone
	if err := db.First(&m, milestoneID).Error; err != nil {
		return notFound(err)
	}
	if m.Status == MilestonePaid {
		return nil
	}
	return transition(db, m.ID, m.Status, MilestonePaid, map[string]interface{}{"paid_at": now})
}

// Reorder assigns sort_index by position in ids. Unknown ids abort the whole reorder.
func Reorder(db *gorm.DB, userID, projectID uint, ids []uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := FindOwned(tx, userID, projectID); err != nil {
			return notFound(err)
		}
		for i, id := range ids {
			res := tx.Model(&Milestone{}).
				Where("id = ? AND project_id = ?", id, projectID).
				Update("sort_index", i)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrMilestoneNotFound
			}
		}
		return nil
	})
}

// CheckBudget rejects an amount that would push the project's milestone
// total over its budget. excludeID skips the milestone being edited.
func CheckBudget(db *gorm.DB, p Project, excludeID uint, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperr.Validation("Amount must not be negative", map[string]string{"amount": "min"})
	}
	if !p.Budget.IsPositive() {
		return nil
	}
	var others []Milestone
	q := db.Model(&Milestone{}).Where("project_id = ?", p.ID)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Find(&others).Error; err != nil {
		return err
	}
	sum := amount
	for _, m := range others {
		sum = sum.Add(m.Amount)
	}
	if sum.GreaterThan(p.Budget) {
		return ErrOverBudget
	}
	return nil
}

func reload(db *gorm.DB, id uint) (Milestone, error) {
	var m Milestone
	err := db.Preload("Deliverables", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&m, id).Error
	return m, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMilestoneNotFound
	}
	return err
}

// LoadMilestone returns a milestone with its deliverables.
func LoadMilestone(db *gorm.DB, id uint) (Milestone, error) {
	m, err := reload(db, id)
	return m, notFound(err)
}
