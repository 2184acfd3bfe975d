package catalog

import (
	"strings"

	"github.com/enrichment/backend/internal/domain/shared"
)

// Brand is a manufacturer label linked to products
type Brand struct {
	shared.BaseEntity
	Name string
}

// NewBrand creates a brand with a trimmed, non-empty name
func NewBrand(name string) (*Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Brand name cannot be empty")
	}
	return &Brand{BaseEntity: shared.NewBaseEntity(), Name: name}, nil
}
