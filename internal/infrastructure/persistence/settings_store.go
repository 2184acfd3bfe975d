package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingsStore implements enrichment.SettingsStore on the config_parameters table
type GormSettingsStore struct {
	db *gorm.DB
}

// NewGormSettingsStore creates a new GormSettingsStore
func NewGormSettingsStore(db *gorm.DB) *GormSettingsStore {
	return &GormSettingsStore{db: db}
}

// Get returns the value stored under key
func (s *GormSettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	var model models.ConfigParameterModel
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Value, true, nil
}

// Set creates or replaces the value under key
func (s *GormSettingsStore) Set(ctx context.Context, key, value string) error {
	model := models.ConfigParameterModel{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model).Error
}

// List returns every key starting with prefix
func (s *GormSettingsStore) List(ctx context.Context, prefix string) (map[string]string, error) {
	var rows []models.ConfigParameterModel
	if err := s.db.WithContext(ctx).Where("key LIKE ?", prefix+"%").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Ensure GormSettingsStore implements SettingsStore
var _ enrichment.SettingsStore = (*GormSettingsStore)(nil)
