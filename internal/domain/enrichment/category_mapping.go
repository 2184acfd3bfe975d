package enrichment

import (
	"strings"
	"time"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryMapping projects an external source category onto the catalog taxonomies
type CategoryMapping struct {
	ID                 uuid.UUID
	ExternalCategory   string // unique
	GoogleCategoryPath string // "A > B > C", used to build missing taxonomy chains
	PublicCategoryID   *uuid.UUID
	InternalCategoryID *uuid.UUID
	AutoPublish        bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewCategoryMapping creates the default mapping for a newly seen category
func NewCategoryMapping(external string, now time.Time) (*CategoryMapping, error) {
	external = strings.TrimSpace(external)
	if external == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "External category cannot be empty")
	}
	return &CategoryMapping{
		ID:               uuid.New(),
		ExternalCategory: external,
		AutoPublish:      true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// NeedsHierarchy reports whether taxonomy chains should be built from the Google path
func (m *CategoryMapping) NeedsHierarchy() bool {
	return m.GoogleCategoryPath != "" && (m.PublicCategoryID == nil || m.InternalCategoryID == nil)
}

// Assignment returns the catalog writes implied by the mapping
func (m *CategoryMapping) Assignment() catalog.CategoryAssignment {
	return catalog.CategoryAssignment{
		PublicCategoryID:   m.PublicCategoryID,
		InternalCategoryID: m.InternalCategoryID,
		Publish:            m.AutoPublish,
	}
}

// SplitCategoryPath splits "A > B > C" into trimmed, non-empty levels
func SplitCategoryPath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, ">") {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
