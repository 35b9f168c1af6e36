package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estimate/backend/internal/domain/shared"
	"github.com/estimate/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormKeyValueStore implements KeyValueStore on a single SQL table
type GormKeyValueStore struct {
	db *Database
}

// NewGormKeyValueStore migrates the entry table and returns the store.
// The store owns db and closes it on Close.
func NewGormKeyValueStore(db *Database) (*GormKeyValueStore, error) {
	if err := db.DB.AutoMigrate(&models.KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate key-value table: %w", err)
	}
	return &GormKeyValueStore{db: db}, nil
}

// Get returns the value stored under key
func (s *GormKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := s.db.DB.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return entry.Value, true, nil
}

// Set upserts value under key
func (s *GormKeyValueStore) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *GormKeyValueStore) Delete(ctx context.Context, key string) error {
	err := s.db.DB.WithContext(ctx).Where("entry_key = ?", key).Delete(&models.KVEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database
func (s *GormKeyValueStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *GormKeyValueStore) Ping(_ context.Context) error {
	return s.db.Ping()
}

// Ensure GormKeyValueStore implements KeyValueStore
var _ shared.KeyValueStore = (*GormKeyValueStore)(nil)
