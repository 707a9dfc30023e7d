package clients

import (
	"time"

	"gorm.io/gorm"
)

type Client struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"not null;index" json:"-"`
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"index" json:"email"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Owned scopes a query to one freelancer's clients.
func Owned(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&Client{}).Where("user_id = ?", userID)
}

// FindOwned loads a client that belongs to userID.
func FindOwned(db *gorm.DB, userID, clientID uint) (Client, error) {
	var c Client
	err := db.Where("id = ? AND user_id = ?", clientID, userID).First(&c).Error
	return c, err
}
