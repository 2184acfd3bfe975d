package models

import (
	"encoding/json"
	"time"

	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/google/uuid"
)

// FieldMappingRuleModel is the persistence model for a field mapping rule
type FieldMappingRuleModel struct {
	BaseModel
	Field          enrichment.Field `gorm:"type:varchar(50);not null;uniqueIndex"`
	AllowedSources string           `gorm:"type:jsonb;default:'[]'"`
	AllowOverwrite bool             `gorm:"not null;default:false"`
	Sequence       int              `gorm:"not null;default:10"`
	Notes          string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FieldMappingRuleModel) TableName() string {
	return "enrichment_field_mapping_rules"
}

// ToDomain converts the persistence model to a domain FieldMappingRule
func (m *FieldMappingRuleModel) ToDomain() *enrichment.FieldMappingRule {
	var sources []enrichment.SourceID
	if m.AllowedSources != "" {
		_ = json.Unmarshal([]byte(m.AllowedSources), &sources)
	}
	return &enrichment.FieldMappingRule{
		ID:             m.ID,
		Field:          m.Field,
		AllowedSources: sources,
		AllowOverwrite: m.AllowOverwrite,
		Sequence:       m.Sequence,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain FieldMappingRule
func (m *FieldMappingRuleModel) FromDomain(r *enrichment.FieldMappingRule) {
	m.ID = r.ID
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
	m.Field = r.Field
	m.AllowOverwrite = r.AllowOverwrite
	m.Sequence = r.Sequence
	m.Notes = r.Notes
	m.AllowedSources = "[]"
	if len(r.AllowedSources) > 0 {
		if data, err := json.Marshal(r.AllowedSources); err == nil {
			m.AllowedSources = string(data)
		}
	}
}

// FieldMappingRuleModelFromDomain creates a new persistence model from a domain rule
func FieldMappingRuleModelFromDomain(r *enrichment.FieldMappingRule) *FieldMappingRuleModel {
	m := &FieldMappingRuleModel{}
	m.FromDomain(r)
	return m
}

// SyncLogModel is the persistence model for one enrichment run
type SyncLogModel struct {
	BaseModel
	SyncType      enrichment.SyncType  `gorm:"type:varchar(20);not null;index"`
	StartTime     time.Time            `gorm:"not null;index"`
	EndTime       *time.Time
	TotalProducts int                  `gorm:"not null;default:0"`
	SyncedCount   int                  `gorm:"not null;default:0"`
	ErrorCount    int                  `gorm:"not null;default:0"`
	NoDataCount   int                  `gorm:"not null;default:0"`
	Status        enrichment.RunStatus `gorm:"type:varchar(20);not null;default:'running';index"`
	ErrorMessage  string               `gorm:"type:text"`
	SourcesUsed   string               `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "enrichment_sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLogRun
func (m *SyncLogModel) ToDomain() *enrichment.SyncLogRun {
	return &enrichment.SyncLogRun{
		ID:           m.ID,
		SyncType:     m.SyncType,
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		Total:        m.TotalProducts,
		SyncedCount:  m.SyncedCount,
		ErrorCount:   m.ErrorCount,
		NoDataCount:  m.NoDataCount,
		Status:       m.Status,
		ErrorMessage: m.ErrorMessage,
		SourcesUsed:  m.SourcesUsed,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// SyncLogModelFromDomain creates a new persistence model from a domain SyncLogRun
func SyncLogModelFromDomain(l *enrichment.SyncLogRun) *SyncLogModel {
	return &SyncLogModel{
		BaseModel: BaseModel{
			ID:        l.ID,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		},
		SyncType:      l.SyncType,
		StartTime:     l.StartTime,
		EndTime:       l.EndTime,
		TotalProducts: l.Total,
		SyncedCount:   l.SyncedCount,
		ErrorCount:    l.ErrorCount,
		NoDataCount:   l.NoDataCount,
		Status:        l.Status,
		ErrorMessage:  l.ErrorMessage,
		SourcesUsed:   l.SourcesUsed,
	}
}

// CategoryMappingModel is the persistence model for an external category mapping
type CategoryMappingModel struct {
	BaseModel
	ExternalCategory   string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	GoogleCategoryPath string     `gorm:"type:varchar(1000)"`
	PublicCategoryID   *uuid.UUID `gorm:"type:uuid"`
	InternalCategoryID *uuid.UUID `gorm:"type:uuid"`
	AutoPublish        bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CategoryMappingModel) TableName() string {
	return "enrichment_category_mappings"
}

// ToDomain converts the persistence model to a domain CategoryMapping
func (m *CategoryMappingModel) ToDomain() *enrichment.CategoryMapping {
	return &enrichment.CategoryMapping{
		ID:                 m.ID,
		ExternalCategory:   m.ExternalCategory,
		GoogleCategoryPath: m.GoogleCategoryPath,
		PublicCategoryID:   m.PublicCategoryID,
		InternalCategoryID: m.InternalCategoryID,
		AutoPublish:        m.AutoPublish,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// CategoryMappingModelFromDomain creates a new persistence model from a domain CategoryMapping
func CategoryMappingModelFromDomain(c *enrichment.CategoryMapping) *CategoryMappingModel {
	return &CategoryMappingModel{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		ExternalCategory:   c.ExternalCategory,
		GoogleCategoryPath: c.GoogleCategoryPath,
		PublicCategoryID:   c.PublicCategoryID,
		InternalCategoryID: c.InternalCategoryID,
		AutoPublish:        c.AutoPublish,
	}
}

// ConfigParameterModel is one row of the key-value settings store
type ConfigParameterModel struct {
	Key       string    `gorm:"type:varchar(150);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConfigParameterModel) TableName() string {
	return "config_parameters"
}

// All returns every model, in dependency order, for AutoMigrate in tests and SQLite setups
func All() []any {
	return []any{
		&BrandModel{},
		&CategoryModel{},
		&ProductModel{},
		&ProductVariantModel{},
		&ProductPublicCategoryModel{},
		&ProductImageModel{},
		&AttributeModel{},
		&AttributeValueModel{},
		&ProductAttributeLineModel{},
		&ProductAttributeLineValueModel{},
		&FieldMappingRuleModel{},
		&SyncLogModel{},
		&CategoryMappingModel{},
		&ConfigParameterModel{},
	}
}
