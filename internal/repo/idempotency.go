package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

// Idempotency stores the outcome of unsafe requests so a retried request with
// the same key replays the original result.
type Idempotency struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewIdempotency returns a store whose records expire after ttl.
func NewIdempotency(db *gorm.DB, ttl time.Duration) *Idempotency {
	return &Idempotency{db: db, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the live record for (userID, scope, key) or ErrNotFound.
// Blank scopes and keys never match.
func (r *Idempotency) Get(ctx context.Context, userID, scope, key string) (*domain.Idempotency, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND scope = ? AND key = ? AND expires_at > ?", userID, scope, key, r.now()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save records that the request produced resourceID with the given HTTP
// status. An expired record for the same key is replaced; a live one yields
// ErrDuplicate.
func (r *Idempotency) Save(ctx context.Context, userID, scope, key, resourceID string, status int) (*domain.Idempotency, error) {
	now := r.now()
	rec := &domain.Idempotency{
		ID:         uuid.NewString(),
		UserID:     userID,
		Scope:      scope,
		Key:        key,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(r.ttl),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND scope = ? AND key = ? AND expires_at <= ?", userID, scope, key, now).
			Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// Purge deletes expired records and reports how many were removed.
func (r *Idempotency) Purge(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", r.now()).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
