package portal

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

func PostMessage(db *gorm.DB, m Message) (Message, error) {
	m.Body = strings.TrimSpace(m.Body)
	if m.Body == "" {
		return m, ErrEmptyMessage
	}
	err := db.Create(&m).Error
	return m, err
}

// Thread lists a client's messages oldest first.
func Thread(db *gorm.DB, userID, clientID uint, projectID *uint) ([]Message, error) {
	q := db.Where("user_id = ? AND client_id = ?", userID, clientID)
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	var out []Message
	err := q.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// MarkRead stamps messages the reader did not send.
func MarkRead(db *gorm.DB, userID, clientID uint, reader Sender, now time.Time) error {
	return db.Model(&Message{}).
		Where("user_id = ? AND client_id = ? AND sender <> ? AND read_at IS NULL", userID, clientID, reader).
		Update("read_at", now).Error
}

func Unread(db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := db.Model(&Message{}).
		Where("user_id = ? AND sender = ? AND read_at IS NULL", userID, SenderClient).
		Count(&n).Error
	return n, err
}
