package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-challenge-backend/internal/domain"
)

// KV is a string key/value store over the kv_entries table. It backs the
// session key and the favorites cache when KV_BACKEND=sqlite.
type KV struct {
	db *gorm.DB
}

// NewKV returns a KV over db. The table must already be migrated.
func NewKV(db *gorm.DB) *KV { return &KV{db: db} }

// Get returns the value for key; ok is false when the key is absent.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var e domain.KVEntry
	err := k.db.WithContext(ctx).Where("key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return e.Value, true, nil
}

// Set inserts or overwrites key.
func (k *KV) Set(ctx context.Context, key, value string) error {
	e := domain.KVEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return k.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

// Delete removes key. Deleting a missing key is not an error.
func (k *KV) Delete(ctx context.Context, key string) error {
	return k.db.WithContext(ctx).Where("key = ?", key).Delete(&domain.KVEntry{}).Error
}
