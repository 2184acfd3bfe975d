package enrichment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
)

// SpecLine is one stored raw specification with its position
type SpecLine struct {
	Index int    `json:"index"`
	Group string `json:"group"`
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// SpecManager reads, prunes and renders a product's stored specifications
type SpecManager struct {
	products catalog.ProductRepository
	renderer enrichment.SpecRenderer
}

// NewSpecManager creates a new SpecManager
func NewSpecManager(products catalog.ProductRepository, renderer enrichment.SpecRenderer) *SpecManager {
	return &SpecManager{products: products, renderer: renderer}
}

// Lines lists the stored specifications of a product
func (m *SpecManager) Lines(ctx context.Context, productID uuid.UUID) ([]SpecLine, error) {
	p, err := m.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toSpecLines(p.Specifications), nil
}

// Remove deletes the lines at the given indexes and returns what remains
func (m *SpecManager) Remove(ctx context.Context, productID uuid.UUID, indexes []int) ([]SpecLine, error) {
	if len(indexes) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No specification lines selected")
	}
	p, err := m.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	drop := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(p.Specifications) {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Specification index %d is out of range", idx))
		}
		drop[idx] = true
	}

	kept := make([]catalog.Specification, 0, len(p.Specifications)-len(drop))
	for i, spec := range p.Specifications {
		if !drop[i] {
			kept = append(kept, spec)
		}
	}
	if err := m.products.SaveSpecifications(ctx, productID, kept); err != nil {
		return nil, err
	}
	return toSpecLines(kept), nil
}

// RenderGrouped renders the stored specifications as grouped tables
func (m *SpecManager) RenderGrouped(ctx context.Context, productID uuid.UUID) (string, error) {
	p, err := m.products.FindByID(ctx, productID)
	if err != nil {
		return "", err
	}
	return m.renderer.RenderGrouped(enrichment.GroupSpecifications(p.Specifications))
}

func toSpecLines(specs []catalog.Specification) []SpecLine {
	lines := make([]SpecLine, len(specs))
	for i, s := range specs {
		lines[i] = SpecLine{Index: i, Group: s.GroupName(), Name: s.Name, Value: s.Value, Unit: s.Unit}
	}
	return lines
}
