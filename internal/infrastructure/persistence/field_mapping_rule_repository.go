package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/enrichment/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFieldMappingRuleRepository implements enrichment.FieldMappingRuleRepository using GORM
type GormFieldMappingRuleRepository struct {
	db *gorm.DB
}

// NewGormFieldMappingRuleRepository creates a new GormFieldMappingRuleRepository
func NewGormFieldMappingRuleRepository(db *gorm.DB) *GormFieldMappingRuleRepository {
	return &GormFieldMappingRuleRepository{db: db}
}

// FindAll lists every stored rule ordered by sequence then field
func (r *GormFieldMappingRuleRepository) FindAll(ctx context.Context) ([]enrichment.FieldMappingRule, error) {
	var rows []models.FieldMappingRuleModel
	if err := r.db.WithContext(ctx).Order("sequence ASC").Order("field ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	rules := make([]enrichment.FieldMappingRule, len(rows))
	for i := range rows {
		rules[i] = *rows[i].ToDomain()
	}
	return rules, nil
}

// FindByField finds the rule of a field
func (r *GormFieldMappingRuleRepository) FindByField(ctx context.Context, field enrichment.Field) (*enrichment.FieldMappingRule, error) {
	var model models.FieldMappingRuleModel
	if err := r.db.WithContext(ctx).Where("field = ?", field).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a rule. A rule with another ID already bound to the
// same field is rejected with DUPLICATE_FIELD_RULE.
func (r *GormFieldMappingRuleRepository) Save(ctx context.Context, rule *enrichment.FieldMappingRule) error {
	if !rule.Field.IsValid() {
		return shared.NewDomainError("UNKNOWN_FIELD", "Unknown destination field: "+string(rule.Field))
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.FieldMappingRuleModel
		err := tx.Where("field = ?", rule.Field).First(&existing).Error
		switch {
		case err == nil && existing.ID != rule.ID:
			return duplicateRule(rule.Field)
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		now := time.Now()
		if rule.CreatedAt.IsZero() {
			rule.CreatedAt = now
		}
		rule.UpdatedAt = now
		if err := tx.Save(models.FieldMappingRuleModelFromDomain(rule)).Error; err != nil {
			if isDuplicateKey(err) {
				return duplicateRule(rule.Field)
			}
			return err
		}
		return nil
	})
}

// DeleteByField removes the rule of a field
func (r *GormFieldMappingRuleRepository) DeleteByField(ctx context.Context, field enrichment.Field) error {
	result := r.db.WithContext(ctx).Where("field = ?", field).Delete(&models.FieldMappingRuleModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func duplicateRule(field enrichment.Field) error {
	return shared.NewDomainError("DUPLICATE_FIELD_RULE", "A rule for field "+string(field)+" already exists")
}

// Ensure GormFieldMappingRuleRepository implements FieldMappingRuleRepository
var _ enrichment.FieldMappingRuleRepository = (*GormFieldMappingRuleRepository)(nil)
