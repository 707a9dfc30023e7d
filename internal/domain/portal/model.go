package portal

import (
	"time"
)

// AccessToken is a single-use magic link sent to a client.
type AccessToken struct {
	ID        uint      `gorm:"primaryKey"`
	ClientID  uint      `gorm:"not null;index"`
	UserID    uint      `gorm:"not null;index"`
	TokenHash string    `gorm:"type:char(64);not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (AccessToken) TableName() string { return "portal_access_tokens" }

// Session is a client's signed-in portal context. Only the token hash is stored.
type Session struct {
	ID         uint      `gorm:"primaryKey"`
	ClientID   uint      `gorm:"not null;index"`
	UserID     uint      `gorm:"not null;index"`
	TokenHash  string    `gorm:"type:char(64);not null;uniqueIndex"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	LastSeenAt time.Time
	CreatedAt  time.Time
}

func (Session) TableName() string { return "portal_sessions" }

type Sender string

const (
	SenderClient     Sender = "client"
	SenderFreelancer Sender = "freelancer"
)

type Message struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	ClientID  uint       `gorm:"not null;index" json:"client_id"`
	UserID    uint       `gorm:"not null;index" json:"-"`
	ProjectID *uint      `gorm:"index" json:"project_id,omitempty"`
	Sender    Sender     `gorm:"type:varchar(20);not null" json:"sender"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Message) TableName() string { return "portal_messages" }
