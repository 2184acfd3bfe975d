package catalog

import (
	"strings"

	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ManagedAttributePrefix marks attributes owned by the enrichment sync.
// Attributes without the prefix are maintained by hand and never touched.
const ManagedAttributePrefix = "[Icecat]"

// Attribute is a named product property such as "[Icecat] Display"
type Attribute struct {
	shared.BaseEntity
	Name string
}

// IsManaged reports whether the attribute is owned by the enrichment sync
func (a *Attribute) IsManaged() bool {
	return IsManagedAttributeName(a.Name)
}

// IsManagedAttributeName reports whether a name carries the managed prefix
func IsManagedAttributeName(name string) bool {
	return strings.HasPrefix(name, ManagedAttributePrefix)
}

// ManagedAttributeName returns the attribute name used for a specification group
func ManagedAttributeName(group string) string {
	return ManagedAttributePrefix + " " + group
}

// AttributeValue is one allowed value of an attribute
type AttributeValue struct {
	shared.BaseEntity
	AttributeID uuid.UUID
	Name        string
}

// ProductAttributeLine links a product to an attribute and a subset of its values
type ProductAttributeLine struct {
	shared.BaseEntity
	ProductID   uuid.UUID
	AttributeID uuid.UUID
	ValueIDs    []uuid.UUID
}

// NewAttribute creates an attribute with a trimmed, non-empty name
func NewAttribute(name string) (*Attribute, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Attribute name cannot be empty")
	}
	return &Attribute{BaseEntity: shared.NewBaseEntity(), Name: name}, nil
}
