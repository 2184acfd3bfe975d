package catalog

import (
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductImage is an extra gallery image attached to a product, separate from the primary image
type ProductImage struct {
	shared.BaseEntity
	ProductID  uuid.UUID
	Name       string
	StorageKey string
	SourceURL  string
	Source     string // upstream source that manages this image, empty for manual uploads
	Sequence   int
}

// IsManaged reports whether the image was attached by an enrichment source
func (i *ProductImage) IsManaged() bool {
	return i.Source != ""
}
