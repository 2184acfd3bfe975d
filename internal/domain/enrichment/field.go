package enrichment

import (
	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/shared"
)

// Field is a destination field on a catalog entry that sources may write
type Field string

const (
	FieldName               Field = "name"
	FieldDescriptionSale    Field = "description_sale"
	FieldWebsiteDescription Field = "website_description"
	FieldImage              Field = "image_1920"
)

// AllFields lists every writable field in a stable order
func AllFields() []Field {
	return []Field{FieldName, FieldDescriptionSale, FieldWebsiteDescription, FieldImage}
}

// IsValid checks if the field is known
func (f Field) IsValid() bool {
	switch f {
	case FieldName, FieldDescriptionSale, FieldWebsiteDescription, FieldImage:
		return true
	}
	return false
}

// String returns the string value
func (f Field) String() string {
	return string(f)
}

// ParseField converts a string into a known field, rejecting anything else
func ParseField(s string) (Field, error) {
	f := Field(s)
	if !f.IsValid() {
		return "", shared.NewDomainError("UNKNOWN_FIELD", "Unknown destination field: "+s)
	}
	return f, nil
}

// CurrentValue returns the persisted value of a field on a product
func CurrentValue(p *catalog.Product, f Field) string {
	switch f {
	case FieldName:
		return p.Name
	case FieldDescriptionSale:
		return p.DescriptionSale
	case FieldWebsiteDescription:
		return p.WebsiteDescription
	case FieldImage:
		return p.ImageKey
	}
	return ""
}
