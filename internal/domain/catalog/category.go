package catalog

import (
	"strings"

	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxCategoryDepth is the maximum depth of category hierarchy
const MaxCategoryDepth = 8

// CategoryKind separates the storefront taxonomy from the internal one
type CategoryKind string

const (
	CategoryKindPublic   CategoryKind = "public"
	CategoryKindInternal CategoryKind = "internal"
)

// IsValid checks if the kind is valid
func (k CategoryKind) IsValid() bool {
	return k == CategoryKindPublic || k == CategoryKindInternal
}

// Category represents a node in one of the catalog taxonomies.
// Names are unique among siblings of the same kind.
type Category struct {
	shared.BaseEntity
	Kind         CategoryKind
	Name         string
	ParentID     *uuid.UUID
	CompleteName string // "Parent / Child"
	Level        int
}

// NewCategory creates a new root category
func NewCategory(kind CategoryKind, name string) (*Category, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY_KIND", "Category kind must be public or internal")
	}
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	return &Category{
		BaseEntity:   shared.NewBaseEntity(),
		Kind:         kind,
		Name:         name,
		CompleteName: name,
	}, nil
}

// NewChildCategory creates a new category under a parent of the same kind
func NewChildCategory(name string, parent *Category) (*Category, error) {
	if parent == nil {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent category is required")
	}
	if parent.Level >= MaxCategoryDepth-1 {
		return nil, shared.NewDomainError("MAX_DEPTH_EXCEEDED", "Category hierarchy is too deep")
	}
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	parentID := parent.ID
	return &Category{
		BaseEntity:   shared.NewBaseEntity(),
		Kind:         parent.Kind,
		Name:         name,
		ParentID:     &parentID,
		CompleteName: parent.CompleteName + " / " + name,
		Level:        parent.Level + 1,
	}, nil
}

// IsRoot returns true if this is a root category
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 200 {
		return "", shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 200 characters")
	}
	return name, nil
}
