package persistence

import (
	"context"
	"errors"

	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/enrichment/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCategoryMappingRepository implements enrichment.CategoryMappingRepository using GORM
type GormCategoryMappingRepository struct {
	db *gorm.DB
}

// NewGormCategoryMappingRepository creates a new GormCategoryMappingRepository
func NewGormCategoryMappingRepository(db *gorm.DB) *GormCategoryMappingRepository {
	return &GormCategoryMappingRepository{db: db}
}

// FindByID finds a mapping by its ID
func (r *GormCategoryMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*enrichment.CategoryMapping, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByExternal finds a mapping by its external category
func (r *GormCategoryMappingRepository) FindByExternal(ctx context.Context, external string) (*enrichment.CategoryMapping, error) {
	return r.first(r.db.WithContext(ctx).Where("external_category = ?", external))
}

func (r *GormCategoryMappingRepository) first(query *gorm.DB) (*enrichment.CategoryMapping, error) {
	var model models.CategoryMappingModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a mapping; a duplicate external category yields shared.ErrAlreadyExists
func (r *GormCategoryMappingRepository) Create(ctx context.Context, mapping *enrichment.CategoryMapping) error {
	if err := r.db.WithContext(ctx).Create(models.CategoryMappingModelFromDomain(mapping)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Save updates an existing mapping
func (r *GormCategoryMappingRepository) Save(ctx context.Context, mapping *enrichment.CategoryMapping) error {
	result := r.db.WithContext(ctx).Model(&models.CategoryMappingModel{}).
		Where("id = ?", mapping.ID).
		Updates(map[string]any{
			"google_category_path": mapping.GoogleCategoryPath,
			"public_category_id":   mapping.PublicCategoryID,
			"internal_category_id": mapping.InternalCategoryID,
			"auto_publish":         mapping.AutoPublish,
			"updated_at":           mapping.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindAll lists mappings ordered by external category
func (r *GormCategoryMappingRepository) FindAll(ctx context.Context) ([]enrichment.CategoryMapping, error) {
	var rows []models.CategoryMappingModel
	if err := r.db.WithContext(ctx).Order("external_category ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]enrichment.CategoryMapping, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Ensure GormCategoryMappingRepository implements CategoryMappingRepository
var _ enrichment.CategoryMappingRepository = (*GormCategoryMappingRepository)(nil)
