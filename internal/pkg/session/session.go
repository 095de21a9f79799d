// Package session binds login tokens to revocable rows in user_sessions.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/inkrealm/blog/internal/models"
	jwtpkg "github.com/inkrealm/blog/internal/pkg/jwt"
	"gorm.io/gorm"
)

const DefaultTTL = 14 * 24 * time.Hour

var ErrNotFound = errors.New("session not found")

// live limits a query to the user's sessions that are neither revoked nor
// expired.
func live(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now())
	}
}

// Issue stores a session for userID and returns a token carrying its id.
func Issue(db *gorm.DB, userID, ip, ua string, ttl time.Duration) (string, *models.UserSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &models.UserSession{
		UserID:    userID,
		IP:        strings.TrimSpace(ip),
		UA:        strings.TrimSpace(ua),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(s).Error; err != nil {
		return "", nil, err
	}

	token, err := jwtpkg.Sign(userID, s.ID, ttl)
	if err != nil {
		_ = db.Delete(s).Error
		return "", nil, err
	}
	return token, s, nil
}

// IsActive reports whether sessionID is a live session of userID.
func IsActive(db *gorm.DB, userID, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, nil
	}
	var n int64
	err := db.Model(&models.UserSession{}).Scopes(live(userID)).Where("id = ?", sessionID).Count(&n).Error
	return n > 0, err
}

// ListActive returns the user's live sessions, newest first.
func ListActive(db *gorm.DB, userID string) ([]models.UserSession, error) {
	list := []models.UserSession{}
	err := db.Scopes(live(userID)).Order("created_at DESC").Find(&list).Error
	return list, err
}

// Revoke ends one session. ErrNotFound means it was not the user's or was
// already revoked.
func Revoke(db *gorm.DB, userID, sessionID string) error {
	res := db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", sessionID, userID).
		Update("revoked_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAllExcept ends every session of the user other than keepID.
func RevokeAllExcept(db *gorm.DB, userID, keepID string) error {
	q := db.Model(&models.UserSession{}).Where("user_id = ? AND revoked_at IS NULL", userID)
	if keepID != "" {
		q = q.Where("id <> ?", keepID)
	}
	return q.Update("revoked_at", time.Now()).Error
}
