package persistence

import (
	"context"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAttributeRepository implements catalog.AttributeRepository using GORM
type GormAttributeRepository struct {
	db *gorm.DB
}

// NewGormAttributeRepository creates a new GormAttributeRepository
func NewGormAttributeRepository(db *gorm.DB) *GormAttributeRepository {
	return &GormAttributeRepository{db: db}
}

// DeleteManaged deletes every managed attribute with its values and product lines.
// Manual attributes are left alone.
func (r *GormAttributeRepository) DeleteManaged(ctx context.Context) (catalog.AttributeCleanupResult, error) {
	var result catalog.AttributeCleanupResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attrIDs []uuid.UUID
		if err := tx.Model(&models.AttributeModel{}).
			Where("name LIKE ?", catalog.ManagedAttributePrefix+"%").
			Pluck("id", &attrIDs).Error; err != nil {
			return err
		}
		if len(attrIDs) == 0 {
			return nil
		}

		lineIDs := tx.Model(&models.ProductAttributeLineModel{}).Select("id").Where("attribute_id IN ?", attrIDs)
		if err := tx.Where("line_id IN (?)", lineIDs).Delete(&models.ProductAttributeLineValueModel{}).Error; err != nil {
			return err
		}

		lines := tx.Where("attribute_id IN ?", attrIDs).Delete(&models.ProductAttributeLineModel{})
		if lines.Error != nil {
			return lines.Error
		}
		values := tx.Where("attribute_id IN ?", attrIDs).Delete(&models.AttributeValueModel{})
		if values.Error != nil {
			return values.Error
		}
		attrs := tx.Where("id IN ?", attrIDs).Delete(&models.AttributeModel{})
		if attrs.Error != nil {
			return attrs.Error
		}

		result = catalog.AttributeCleanupResult{
			Attributes: attrs.RowsAffected,
			Values:     values.RowsAffected,
			Lines:      lines.RowsAffected,
		}
		return nil
	})
	if err != nil {
		return catalog.AttributeCleanupResult{}, err
	}
	return result, nil
}

// FindLines returns a product's attribute lines with attribute names and value names
func (r *GormAttributeRepository) FindLines(ctx context.Context, productID uuid.UUID) ([]ProductAttributeView, error) {
	var lines []models.ProductAttributeLineModel
	if err := r.db.WithContext(ctx).
		Preload(clause.Associations).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	attrIDs := make([]uuid.UUID, 0, len(lines))
	var valueIDs []uuid.UUID
	for _, l := range lines {
		attrIDs = append(attrIDs, l.AttributeID)
		for _, v := range l.Values {
			valueIDs = append(valueIDs, v.ValueID)
		}
	}

	var attrs []models.AttributeModel
	if err := r.db.WithContext(ctx).Where("id IN ?", attrIDs).Find(&attrs).Error; err != nil {
		return nil, err
	}
	attrNames := make(map[uuid.UUID]string, len(attrs))
	for _, a := range attrs {
		attrNames[a.ID] = a.Name
	}

	valueNames := make(map[uuid.UUID]string, len(valueIDs))
	if len(valueIDs) > 0 {
		var values []models.AttributeValueModel
		if err := r.db.WithContext(ctx).Where("id IN ?", valueIDs).Find(&values).Error; err != nil {
			return nil, err
		}
		for _, v := range values {
			valueNames[v.ID] = v.Name
		}
	}

	out := make([]ProductAttributeView, 0, len(lines))
	for _, l := range lines {
		view := ProductAttributeView{Attribute: attrNames[l.AttributeID]}
		for _, v := range l.Values {
			view.Values = append(view.Values, valueNames[v.ValueID])
		}
		out = append(out, view)
	}
	return out, nil
}

// ProductAttributeView is a denormalised attribute line for display
type ProductAttributeView struct {
	Attribute string   `json:"attribute"`
	Values    []string `json:"values"`
}

// Ensure GormAttributeRepository implements AttributeRepository
var _ catalog.AttributeRepository = (*GormAttributeRepository)(nil)
