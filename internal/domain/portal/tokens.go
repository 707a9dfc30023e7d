package portal

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"freelancer-hub/internal/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrInvalidLink    = apperr.Unauthorized("This link is invalid or has expired")
	ErrInvalidSession = apperr.Unauthorized("Portal session is invalid or has expired")
	ErrEmptyMessage   = apperr.Validation("Message body is required", map[string]string{"body": "required"})
)

// NewToken returns a random opaque token and its storage hash.
func NewToken() (raw, hash string) {
	raw = strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw, HashToken(raw)
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// IssueLink creates a magic-link token for a client. The raw token is only
// returned here; the database keeps its hash.
func IssueLink(db *gorm.DB, userID, clientID uint, ttl time.Duration, now time.Time) (string, AccessToken, error) {
	raw, hash := NewToken()
	t := AccessToken{
		ClientID:  clientID,
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.Create(&t).Error; err != nil {
		return "", AccessToken{}, err
	}
	return raw, t, nil
}

// Exchange consumes a magic-link token and opens a portal session.
func Exchange(db *gorm.DB, rawLink string, sessionTTL time.Duration, now time.Time) (string, Session, error) {
	if rawLink == "" {
		return "", Session{}, ErrInvalidLink
	}
	raw, hash := NewToken()
	var s Session
	err := db.Transaction(func(tx *gorm.DB) error {
		var link AccessToken
		err := tx.Where("token_hash = ?", HashToken(rawLink)).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidLink
		}
		if err != nil {
			return err
		}
		if link.UsedAt != nil || !now.Before(link.ExpiresAt) {
			return ErrInvalidLink
		}
		res := tx.Model(&AccessToken{}).
			Where("id = ? AND used_at IS NULL", link.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidLink
		}
		s = Session{
			ClientID:   link.ClientID,
			UserID:     link.UserID,
			TokenHash:  hash,
			ExpiresAt:  now.Add(sessionTTL),
			LastSeenAt: now,
		}
		return tx.Create(&s).Error
	})
	if err != nil {
		return "", Session{}, err
	}
	return raw, s, nil
}

// Resolve finds the live session for a raw cookie value.
func Resolve(db *gorm.DB, raw string, now time.Time) (Session, error) {
	if raw == "" {
		return Session{}, ErrInvalidSession
	}
	var s Session
	err := db.Where("token_hash = ? AND expires_at > ?", HashToken(raw), now).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s, ErrInvalidSession
	}
	if err != nil {
		return s, err
	}
	if err := db.Model(&Session{}).Where("id = ?", s.ID).Update("last_seen_at", now).Error; err != nil {
		log.Warn().Err(err).Uint("session_id", s.ID).Msg("touch portal session")
	}
	return s, nil
}

func Revoke(db *gorm.DB, raw string) error {
	return db.Where("token_hash = ?", HashToken(raw)).Delete(&Session{}).Error
}

// PurgeExpired drops sessions and links that can no longer be used.
func PurgeExpired(db *gorm.DB, now time.Time) (int64, error) {
	var total int64
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires_at <= ?", now).Delete(&Session{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		res = tx.Where("expires_at <= ? OR used_at IS NOT NULL", now).Delete(&AccessToken{})
		total += res.RowsAffected
		return res.Error
	})
	return total, err
}
