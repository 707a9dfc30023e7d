package users

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email" json:"email"`
	Password     *string `json:"-"`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'" json:"auth_provider"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub" json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'user'" json:"role"`

	Name            string `json:"name"`
	BusinessName    string `json:"business_name"`
	DefaultCurrency string `gorm:"type:varchar(3);not null;default:'usd'" json:"default_currency"`
	// Net days used when an invoice is created without a due date.
	PaymentTermsDays int `gorm:"not null;default:30" json:"payment_terms_days"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName is what clients see in emails and the portal.
func (u User) DisplayName() string {
	if u.BusinessName != "" {
		return u.BusinessName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
