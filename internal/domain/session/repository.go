package session

import (
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(sess *Session) error
	FindByID(id uint) (*Session, error)
	UpdateToken(id uint, token string) error
	Touch(id uint, t time.Time) error
	Deactivate(id uint) error
	DeactivateAllForUser(userID uint) error
	CountForUser(userID uint) (int64, error)
	CountLiveForUser(userID uint) (int64, error)
	FindLiveByUser(userID uint) ([]Session, error)
	DeactivateOldestLive(userID, excludeID uint) error
	DeleteExpired(olderThan time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(sess *Session) error {
	return r.db.Create(sess).Error
}

func (r *repository) FindByID(id uint) (*Session, error) {
	var sess Session
	err := r.db.Where("id = ?", id).First(&sess).Error
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// UpdateToken replaces the stored token value. Session issuance inserts a
// placeholder row first because the signed token has to embed the row ID.
func (r *repository) UpdateToken(id uint, token string) error {
	return r.db.Model(&Session{}).
		Where("id = ?", id).
		Update("session_token", token).Error
}

// Touch bumps updated_at, which also orders sessions for LRU eviction
func (r *repository) Touch(id uint, t time.Time) error {
	return r.db.Model(&Session{}).
		Where("id = ?", id).
		Update("updated_at", t).Error
}

// Deactivate retires one session. Retiring an already-retired session is
// a no-op, not an error.
func (r *repository) Deactivate(id uint) error {
	return r.db.Model(&Session{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *repository) DeactivateAllForUser(userID uint) error {
	return r.db.Model(&Session{}).
		Where("user_id = ?", userID).
		Update("is_active", false).Error
}

// CountForUser counts every session row ever created for the user,
// including retired ones. The first-login check relies on this total.
func (r *repository) CountForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&Session{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountLiveForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&Session{}).
		Where("user_id = ? AND is_active = true AND expires_at > ?", userID, time.Now().UTC()).
		Count(&count).Error
	return count, err
}

// FindLiveByUser lists live sessions, most recently touched first
func (r *repository) FindLiveByUser(userID uint) ([]Session, error) {
	var sessions []Session
	err := r.db.
		Where("user_id = ? AND is_active = true AND expires_at > ?", userID, time.Now().UTC()).
		Order("updated_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeactivateOldestLive retires the single least-recently-touched live
// session for the user, skipping excludeID so the session serving the
// current request can never evict itself. Used by the session-cap policy.
func (r *repository) DeactivateOldestLive(userID, excludeID uint) error {
	sub := r.db.Model(&Session{}).
		Select("id").
		Where("user_id = ? AND id != ? AND is_active = true AND expires_at > ?", userID, excludeID, time.Now().UTC()).
		Order("updated_at ASC").
		Limit(1)

	return r.db.Model(&Session{}).
		Where("id IN (?)", sub).
		Update("is_active", false).Error
}

// DeleteExpired removes session rows whose expiry passed before olderThan
// and returns how many were deleted
func (r *repository) DeleteExpired(olderThan time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", olderThan).Delete(&Session{})
	return res.RowsAffected, res.Error
}
