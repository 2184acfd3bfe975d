package models

import (
	"encoding/json"
	"time"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	Name                 string     `gorm:"type:varchar(255);not null"`
	DescriptionSale      string     `gorm:"type:text"`
	DescriptionEcommerce string     `gorm:"type:text"`
	WebsiteDescription   string     `gorm:"type:text"`
	HighlightsHTML       string     `gorm:"column:highlights_html;type:text"`
	ImageKey             string     `gorm:"type:varchar(500)"`
	BrandID              *uuid.UUID `gorm:"type:uuid;index"`
	CategoryID           *uuid.UUID `gorm:"type:uuid;index"`
	IsPublished          bool       `gorm:"not null;default:false"`
	Specifications       string     `gorm:"type:jsonb;default:'[]'"`

	EnrichmentStatus   catalog.EnrichmentStatus `gorm:"type:varchar(20);not null;default:'not_synced';index"`
	EnrichmentLastSync *time.Time               `gorm:"index"`
	EnrichmentError    string                   `gorm:"type:text"`
	SourcesUsed        string                   `gorm:"type:varchar(100)"`

	BarcodeLookupUsed  bool   `gorm:"not null;default:false"`
	BarcodeLookupID    string `gorm:"column:barcode_lookup_id;type:varchar(100)"`
	BarcodeLookupBrand string `gorm:"type:varchar(200)"`
	BarcodeLookupMPN   string `gorm:"column:barcode_lookup_mpn;type:varchar(100)"`
	IcecatUsed         bool   `gorm:"not null;default:false"`
	IcecatID           string `gorm:"column:icecat_id;type:varchar(100)"`
	IcecatBrand        string `gorm:"type:varchar(200)"`
	IcecatCategory     string `gorm:"type:varchar(255);index"`
	IcecatQuality      string `gorm:"type:varchar(50)"`

	Variants         []ProductVariantModel        `gorm:"foreignKey:ProductID"`
	PublicCategories []ProductPublicCategoryModel `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
// Unreadable stored specifications decode as empty.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot:    m.AggregateModel.ToDomain(),
		Name:                 m.Name,
		DescriptionSale:      m.DescriptionSale,
		DescriptionEcommerce: m.DescriptionEcommerce,
		WebsiteDescription:   m.WebsiteDescription,
		HighlightsHTML:       m.HighlightsHTML,
		ImageKey:             m.ImageKey,
		BrandID:              m.BrandID,
		CategoryID:           m.CategoryID,
		IsPublished:          m.IsPublished,
		Specifications:       DecodeSpecifications(m.Specifications),
		EnrichmentStatus:     m.EnrichmentStatus,
		EnrichmentLastSync:   m.EnrichmentLastSync,
		EnrichmentError:      m.EnrichmentError,
		SourcesUsed:          m.SourcesUsed,
		Provenance: catalog.SourceProvenance{
			BarcodeLookupUsed:  m.BarcodeLookupUsed,
			BarcodeLookupID:    m.BarcodeLookupID,
			BarcodeLookupBrand: m.BarcodeLookupBrand,
			BarcodeLookupMPN:   m.BarcodeLookupMPN,
			IcecatUsed:         m.IcecatUsed,
			IcecatID:           m.IcecatID,
			IcecatBrand:        m.IcecatBrand,
			IcecatCategory:     m.IcecatCategory,
			IcecatQuality:      m.IcecatQuality,
		},
	}
	for i := range m.Variants {
		p.Variants = append(p.Variants, m.Variants[i].ToDomain())
	}
	for _, pc := range m.PublicCategories {
		p.PublicCategoryIDs = append(p.PublicCategoryIDs, pc.CategoryID)
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.DescriptionSale = p.DescriptionSale
	m.DescriptionEcommerce = p.DescriptionEcommerce
	m.WebsiteDescription = p.WebsiteDescription
	m.HighlightsHTML = p.HighlightsHTML
	m.ImageKey = p.ImageKey
	m.BrandID = p.BrandID
	m.CategoryID = p.CategoryID
	m.IsPublished = p.IsPublished
	m.Specifications = EncodeSpecifications(p.Specifications)
	m.EnrichmentStatus = p.EnrichmentStatus
	m.EnrichmentLastSync = p.EnrichmentLastSync
	m.EnrichmentError = p.EnrichmentError
	m.SourcesUsed = p.SourcesUsed
	m.BarcodeLookupUsed = p.Provenance.BarcodeLookupUsed
	m.BarcodeLookupID = p.Provenance.BarcodeLookupID
	m.BarcodeLookupBrand = p.Provenance.BarcodeLookupBrand
	m.BarcodeLookupMPN = p.Provenance.BarcodeLookupMPN
	m.IcecatUsed = p.Provenance.IcecatUsed
	m.IcecatID = p.Provenance.IcecatID
	m.IcecatBrand = p.Provenance.IcecatBrand
	m.IcecatCategory = p.Provenance.IcecatCategory
	m.IcecatQuality = p.Provenance.IcecatQuality

	m.Variants = make([]ProductVariantModel, 0, len(p.Variants))
	for _, v := range p.Variants {
		m.Variants = append(m.Variants, ProductVariantModelFromDomain(p.ID, v))
	}
	m.PublicCategories = make([]ProductPublicCategoryModel, 0, len(p.PublicCategoryIDs))
	for _, id := range p.PublicCategoryIDs {
		m.PublicCategories = append(m.PublicCategories, ProductPublicCategoryModel{ProductID: p.ID, CategoryID: id})
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// EncodeSpecifications renders specifications as a JSON array
func EncodeSpecifications(specs []catalog.Specification) string {
	if len(specs) == 0 {
		return "[]"
	}
	data, err := json.Marshal(specs)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeSpecifications parses a stored JSON array; invalid input yields nil
func DecodeSpecifications(raw string) []catalog.Specification {
	if raw == "" {
		return nil
	}
	var specs []catalog.Specification
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil
	}
	if len(specs) == 0 {
		return nil
	}
	return specs
}

// ProductVariantModel is the persistence model for a product variant
type ProductVariantModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU       string    `gorm:"column:sku;type:varchar(100)"`
	Barcode   string    `gorm:"type:varchar(50);index"`
	Sequence  int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant
func (m *ProductVariantModel) ToDomain() catalog.ProductVariant {
	return catalog.ProductVariant{
		ID:       m.ID,
		SKU:      m.SKU,
		Barcode:  m.Barcode,
		Sequence: m.Sequence,
	}
}

// ProductVariantModelFromDomain creates a variant row owned by the given product
func ProductVariantModelFromDomain(productID uuid.UUID, v catalog.ProductVariant) ProductVariantModel {
	id := v.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return ProductVariantModel{
		ID:        id,
		ProductID: productID,
		SKU:       v.SKU,
		Barcode:   v.Barcode,
		Sequence:  v.Sequence,
	}
}

// ProductPublicCategoryModel links a product to a storefront category
type ProductPublicCategoryModel struct {
	ProductID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (ProductPublicCategoryModel) TableName() string {
	return "product_public_categories"
}

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	BaseModel
	Kind         catalog.CategoryKind `gorm:"type:varchar(20);not null;index:idx_category_kind_parent_name,priority:1"`
	ParentID     *uuid.UUID           `gorm:"type:uuid;index:idx_category_kind_parent_name,priority:2"`
	Name         string               `gorm:"type:varchar(200);not null;index:idx_category_kind_parent_name,priority:3"`
	CompleteName string               `gorm:"type:varchar(1000);not null"`
	Level        int                  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity:   m.BaseModel.ToDomain(),
		Kind:         m.Kind,
		Name:         m.Name,
		ParentID:     m.ParentID,
		CompleteName: m.CompleteName,
		Level:        m.Level,
	}
}

// FromDomain populates the persistence model from a domain Category entity.
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Kind = c.Kind
	m.Name = c.Name
	m.ParentID = c.ParentID
	m.CompleteName = c.CompleteName
	m.Level = c.Level
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{}
	m.FromDomain(c)
	return m
}

// BrandModel is the persistence model for the Brand domain entity.
type BrandModel struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (BrandModel) TableName() string {
	return "brands"
}

// ToDomain converts the persistence model to a domain Brand entity.
func (m *BrandModel) ToDomain() *catalog.Brand {
	return &catalog.Brand{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name}
}

// BrandModelFromDomain creates a new persistence model from a domain Brand entity.
func BrandModelFromDomain(b *catalog.Brand) *BrandModel {
	m := &BrandModel{Name: b.Name}
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}

// ProductImageModel is the persistence model for an extra gallery image
type ProductImageModel struct {
	BaseModel
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:varchar(255)"`
	StorageKey string    `gorm:"type:varchar(500);not null"`
	SourceURL  string    `gorm:"column:source_url;type:text"`
	Source     string    `gorm:"type:varchar(30);index"`
	Sequence   int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductImageModel) TableName() string {
	return "product_images"
}

// ToDomain converts the persistence model to a domain ProductImage entity.
func (m *ProductImageModel) ToDomain() *catalog.ProductImage {
	return &catalog.ProductImage{
		BaseEntity: m.BaseModel.ToDomain(),
		ProductID:  m.ProductID,
		Name:       m.Name,
		StorageKey: m.StorageKey,
		SourceURL:  m.SourceURL,
		Source:     m.Source,
		Sequence:   m.Sequence,
	}
}

// ProductImageModelFromDomain creates a new persistence model from a domain ProductImage entity.
func ProductImageModelFromDomain(i *catalog.ProductImage) *ProductImageModel {
	m := &ProductImageModel{
		ProductID:  i.ProductID,
		Name:       i.Name,
		StorageKey: i.StorageKey,
		SourceURL:  i.SourceURL,
		Source:     i.Source,
		Sequence:   i.Sequence,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}

// AttributeModel is the persistence model for a product attribute
type AttributeModel struct {
	BaseModel
	Name string `gorm:"type:varchar(255);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (AttributeModel) TableName() string {
	return "attributes"
}

// ToDomain converts the persistence model to a domain Attribute entity.
func (m *AttributeModel) ToDomain() *catalog.Attribute {
	return &catalog.Attribute{BaseEntity: m.BaseModel.ToDomain(), Name: m.Name}
}

// AttributeValueModel is the persistence model for an attribute value
type AttributeValueModel struct {
	BaseModel
	AttributeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attribute_value_name,priority:1"`
	Name        string    `gorm:"type:varchar(500);not null;uniqueIndex:idx_attribute_value_name,priority:2"`
}

// TableName returns the table name for GORM
func (AttributeValueModel) TableName() string {
	return "attribute_values"
}

// ToDomain converts the persistence model to a domain AttributeValue entity.
func (m *AttributeValueModel) ToDomain() *catalog.AttributeValue {
	return &catalog.AttributeValue{BaseEntity: m.BaseModel.ToDomain(), AttributeID: m.AttributeID, Name: m.Name}
}

// ProductAttributeLineModel links a product to an attribute
type ProductAttributeLineModel struct {
	BaseModel
	ProductID   uuid.UUID                        `gorm:"type:uuid;not null;index"`
	AttributeID uuid.UUID                        `gorm:"type:uuid;not null;index"`
	Values      []ProductAttributeLineValueModel `gorm:"foreignKey:LineID"`
}

// TableName returns the table name for GORM
func (ProductAttributeLineModel) TableName() string {
	return "product_attribute_lines"
}

// ToDomain converts the persistence model to a domain ProductAttributeLine entity.
func (m *ProductAttributeLineModel) ToDomain() *catalog.ProductAttributeLine {
	line := &catalog.ProductAttributeLine{
		BaseEntity:  m.BaseModel.ToDomain(),
		ProductID:   m.ProductID,
		AttributeID: m.AttributeID,
	}
	for _, v := range m.Values {
		line.ValueIDs = append(line.ValueIDs, v.ValueID)
	}
	return line
}

// ProductAttributeLineValueModel selects one value on an attribute line
type ProductAttributeLineValueModel struct {
	LineID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ValueID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (ProductAttributeLineValueModel) TableName() string {
	return "product_attribute_line_values"
}
