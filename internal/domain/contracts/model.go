package contracts

import (
	"errors"
	"strings"
	"time"

	"freelancer-hub/internal/apperr"

	"gorm.io/gorm"
)

var (
	ErrContractNotFound = apperr.NotFound("Contract not found")
	ErrAlreadySigned    = apperr.Conflict("Contract is already signed")
	ErrNotSignable      = apperr.Conflict("Contract is not awaiting a signature")
	ErrNotEditable      = apperr.Conflict("Only draft contracts can be edited")
	ErrSignatureName    = apperr.Validation("Signature name is required", map[string]string{"signature_name": "required"})
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusSigned    Status = "signed"
	StatusCancelled Status = "cancelled"
)

type Contract struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"not null;index" json:"-"`
	ClientID  uint   `gorm:"not null;index" json:"client_id"`
	ProjectID *uint  `gorm:"index" json:"project_id,omitempty"`
	Title     string `gorm:"not null" json:"title"`
	Content   string `gorm:"type:text" json:"content"`
	Status    Status `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`

	SentAt        *time.Time `json:"sent_at,omitempty"`
	SignedAt      *time.Time `json:"signed_at,omitempty"`
	SignatureName string     `json:"signature_name,omitempty"`
	SignatureIP   string     `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func Owned(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&Contract{}).Where("user_id = ?", userID)
}

func FindOwned(db *gorm.DB, userID, id uint) (Contract, error) {
	var c Contract
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	return c, notFound(err)
}

// FindForClient hides drafts from the portal.
func FindForClient(db *gorm.DB, clientID, id uint) (Contract, error) {
	var c Contract
	err := db.Where("id = ? AND client_id = ? AND status <> ?", id, clientID, StatusDraft).First(&c).Error
	return c, notFound(err)
}

func Send(db *gorm.DB, userID, id uint, now time.Time) (Contract, error) {
	c, err := FindOwned(db, userID, id)
	if err != nil {
		return c, err
	}
	if c.Status != StatusDraft {
		return c, ErrNotEditable
	}
	res := db.Model(&Contract{}).
		Where("id = ? AND status = ?", c.ID, StatusDraft).
		Updates(map[string]interface{}{"status": StatusSent, "sent_at": now})
	if res.Error != nil {
		return c, res.Error
	}
	if res.RowsAffected == 0 {
		return c, ErrNotEditable
	}
	return FindOwned(db, userID, id)
}

// Sign records the client's signature on a sent contract.
func Sign(db *gorm.DB, clientID, id uint, name, ip string, now time.Time) (Contract, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Contract{}, ErrSignatureName
	}
	c, err := FindForClient(db, clientID, id)
	if err != nil {
		return c, err
	}
	switch c.Status {
	case StatusSigned:
		return c, ErrAlreadySigned
	case StatusSent:
	default:
		return c, ErrNotSignable
	}
	res := db.Model(&Contract{}).
		Where("id = ? AND status = ?", c.ID, StatusSent).
		Updates(map[string]interface{}{
			"status":         StatusSigned,
			"signed_at":      now,
			"signature_name": name,
			"signature_ip":   ip,
		})
	if res.Error != nil {
		return c, res.Error
	}
	if res.RowsAffected == 0 {
		return c, ErrAlreadySigned
	}
	return FindForClient(db, clientID, id)
}

func Cancel(db *gorm.DB, userID, id uint) (Contract, error) {
	c, err := FindOwned(db, userID, id)
	if err != nil {
		return c, err
	}
	if c.Status == StatusSigned || c.Status == StatusCancelled {
		return c, ErrNotEditable
	}
	if err := db.Model(&Contract{}).Where("id = ?", c.ID).Update("status", StatusCancelled).Error; err != nil {
		return c, err
	}
	c.Status = StatusCancelled
	return c, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrContractNotFound
	}
	return err
}
