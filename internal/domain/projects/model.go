package projects

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

type Project struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UserID      uint          `gorm:"not null;index" json:"-"`
	ClientID    uint          `gorm:"not null;index" json:"client_id"`
	Name        string        `gorm:"not null" json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	// Budget caps the sum of milestone amounts; zero means uncapped.
	Budget     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"budget"`
	HourlyRate decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"hourly_rate"`
	StartDate  *time.Time      `json:"start_date,omitempty"`
	EndDate    *time.Time      `json:"end_date,omitempty"`

	Milestones []Milestone `gorm:"constraint:OnDelete:CASCADE;" json:"milestones,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MilestoneStatus string

const (
	MilestonePending         MilestoneStatus = "pending"
	MilestoneInProgress      MilestoneStatus = "in_progress"
	MilestonePendingApproval MilestoneStatus = "pending_approval"
	MilestoneApproved        MilestoneStatus = "approved"
	MilestonePaid            MilestoneStatus = "paid"
)

type Milestone struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProjectID   uint            `gorm:"not null;index:idx_milestones_project_sort,priority:1" json:"project_id"`
	SortIndex   int             `gorm:"not null;default:0;index:idx_milestones_project_sort,priority:2" json:"sort_index"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amount"`
	Status      MilestoneStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`

	Deliverables []Deliverable `gorm:"constraint:OnDelete:CASCADE;" json:"deliverables,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeliverableStatus string

const (
	DeliverablePending   DeliverableStatus = "pending"
	DeliverableSubmitted DeliverableStatus = "submitted"
	DeliverableApproved  DeliverableStatus = "approved"
	DeliverableRejected  DeliverableStatus = "rejected"
)

type Deliverable struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	MilestoneID uint              `gorm:"not null;index" json:"milestone_id"`
	Title       string            `gorm:"not null" json:"title"`
	URL         string            `json:"url,omitempty"`
	Status      DeliverableStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Feedback    string            `json:"feedback,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func Owned(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&Project{}).Where("user_id = ?", userID)
}

func FindOwned(db *gorm.DB, userID, projectID uint) (Project, error) {
	var p Project
	err := db.Where("id = ? AND user_id = ?", projectID, userID).First(&p).Error
	return p, err
}

// FindOwnedMilestone loads a milestone whose project belongs to userID.
func FindOwnedMilestone(db *gorm.DB, userID, milestoneID uint) (Milestone, error) {
	var m Milestone
	err := db.Model(&Milestone{}).
		Joins("JOIN projects ON projects.id = milestones.project_id").
		Where("milestones.id = ? AND projects.user_id = ?", milestoneID, userID).
		First(&m).Error
	return m, err
}

// FindClientMilestone loads a milestone visible to a portal client.
func FindClientMilestone(db *gorm.DB, clientID, milestoneID uint) (Milestone, error) {
	var m Milestone
	err := db.Model(&Milestone{}).
		Joins("JOIN projects ON projects.id = milestones.project_id").
		Where("milestones.id = ? AND projects.client_id = ?", milestoneID, clientID).
		First(&m).Error
	return m, err
}
