package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xelth-com/alloyplan/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps session values in the planner_sessions table
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db. The table must be migrated
// (models.SessionRecord).
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec models.SessionRecord
	err := s.db.WithContext(ctx).Where("session_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", key, err)
	}
	return []byte(rec.Value), nil
}

func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	rec := models.SessionRecord{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		UpdateAll: true,
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("session_key = ?", key).Delete(&models.SessionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete session %s: %w", key, err)
	}
	return nil
}
