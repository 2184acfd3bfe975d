package enrichment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
)

// MappingView is a category mapping with the number of products carrying its external category
type MappingView struct {
	ID                 uuid.UUID  `json:"id"`
	ExternalCategory   string     `json:"external_category"`
	GoogleCategoryPath string     `json:"google_category_path"`
	PublicCategoryID   *uuid.UUID `json:"public_category_id,omitempty"`
	InternalCategoryID *uuid.UUID `json:"internal_category_id,omitempty"`
	AutoPublish        bool       `json:"auto_publish"`
	ProductCount       int64      `json:"product_count"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// UpdateMappingInput replaces the editable fields of a mapping
type UpdateMappingInput struct {
	GoogleCategoryPath string
	PublicCategoryID   *uuid.UUID
	InternalCategoryID *uuid.UUID
	AutoPublish        bool
}

// CategoryService resolves external categories and administers the mappings
type CategoryService struct {
	mappings   enrichment.CategoryMappingRepository
	categories catalog.CategoryRepository
	products   catalog.ProductRepository
	now        func() time.Time
	logger     *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	mappings enrichment.CategoryMappingRepository,
	categories catalog.CategoryRepository,
	products catalog.ProductRepository,
	logger *zap.Logger,
) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		mappings:   mappings,
		categories: categories,
		products:   products,
		now:        time.Now,
		logger:     logger,
	}
}

// Resolve returns the catalog assignment for an external category,
// creating the mapping and any missing taxonomy chain on first sight.
func (s *CategoryService) Resolve(ctx context.Context, external string) (catalog.CategoryAssignment, error) {
	m, err := s.GetOrCreate(ctx, external)
	if err != nil {
		return catalog.CategoryAssignment{}, err
	}
	if m.NeedsHierarchy() {
		if err := s.buildHierarchy(ctx, m); err != nil {
			return catalog.CategoryAssignment{}, err
		}
	}
	return m.Assignment(), nil
}

// GetOrCreate returns the mapping of an external category. A concurrent
// insert of the same category is resolved by re-reading the winner.
func (s *CategoryService) GetOrCreate(ctx context.Context, external string) (*enrichment.CategoryMapping, error) {
	external = strings.TrimSpace(external)
	m, err := s.mappings.FindByExternal(ctx, external)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	m, err = enrichment.NewCategoryMapping(external, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.mappings.Create(ctx, m); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.mappings.FindByExternal(ctx, external)
		}
		return nil, err
	}
	s.logger.Info("Created category mapping", zap.String("external_category", external))
	return m, nil
}

// buildHierarchy fills the missing taxonomy ids from the Google path and saves the mapping
func (s *CategoryService) buildHierarchy(ctx context.Context, m *enrichment.CategoryMapping) error {
	levels := enrichment.SplitCategoryPath(m.GoogleCategoryPath)
	if len(levels) == 0 {
		return nil
	}
	if m.PublicCategoryID == nil {
		id, err := s.ensureChain(ctx, catalog.CategoryKindPublic, levels)
		if err != nil {
			return err
		}
		m.PublicCategoryID = &id
	}
	if m.InternalCategoryID == nil {
		id, err := s.ensureChain(ctx, catalog.CategoryKindInternal, levels)
		if err != nil {
			return err
		}
		m.InternalCategoryID = &id
	}
	m.UpdatedAt = s.now()
	return s.mappings.Save(ctx, m)
}

// ensureChain finds or creates each level under its parent and returns the leaf id
func (s *CategoryService) ensureChain(ctx context.Context, kind catalog.CategoryKind, levels []string) (uuid.UUID, error) {
	var parent *catalog.Category
	for _, name := range levels {
		var parentID *uuid.UUID
		if parent != nil {
			id := parent.ID
			parentID = &id
		}
		cat, err := s.categories.FindChild(ctx, kind, parentID, name)
		if errors.Is(err, shared.ErrNotFound) {
			cat, err = s.createCategory(ctx, kind, name, parent)
		}
		if err != nil {
			return uuid.Nil, err
		}
		parent = cat
	}
	return parent.ID, nil
}

func (s *CategoryService) createCategory(ctx context.Context, kind catalog.CategoryKind, name string, parent *catalog.Category) (*catalog.Category, error) {
	var (
		cat *catalog.Category
		err error
	)
	if parent == nil {
		cat, err = catalog.NewCategory(kind, name)
	} else {
		cat, err = catalog.NewChildCategory(name, parent)
	}
	if err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, cat); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.categories.FindChild(ctx, kind, cat.ParentID, cat.Name)
		}
		return nil, err
	}
	return cat, nil
}

// List returns every mapping with its product count
func (s *CategoryService) List(ctx context.Context) ([]MappingView, error) {
	mappings, err := s.mappings.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]MappingView, 0, len(mappings))
	for i := range mappings {
		view, err := s.view(ctx, &mappings[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// Update replaces the editable fields of a mapping after checking the category kinds
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, in UpdateMappingInput) (*MappingView, error) {
	m, err := s.mappings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkKind(ctx, in.PublicCategoryID, catalog.CategoryKindPublic); err != nil {
		return nil, err
	}
	if err := s.checkKind(ctx, in.InternalCategoryID, catalog.CategoryKindInternal); err != nil {
		return nil, err
	}

	m.GoogleCategoryPath = strings.TrimSpace(in.GoogleCategoryPath)
	m.PublicCategoryID = in.PublicCategoryID
	m.InternalCategoryID = in.InternalCategoryID
	m.AutoPublish = in.AutoPublish
	m.UpdatedAt = s.now()
	if err := s.mappings.Save(ctx, m); err != nil {
		return nil, err
	}
	return s.view(ctx, m)
}

func (s *CategoryService) checkKind(ctx context.Context, id *uuid.UUID, kind catalog.CategoryKind) error {
	if id == nil {
		return nil
	}
	cat, err := s.categories.FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found: "+id.String())
		}
		return err
	}
	if cat.Kind != kind {
		return shared.NewDomainError("INVALID_CATEGORY", "Category "+cat.Name+" is not a "+string(kind)+" category")
	}
	return nil
}

// ApplyToProducts applies the mapping to every product with its external category
func (s *CategoryService) ApplyToProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	m, err := s.mappings.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if m.NeedsHierarchy() {
		if err := s.buildHierarchy(ctx, m); err != nil {
			return 0, err
		}
	}
	assignment := m.Assignment()
	if assignment.IsEmpty() {
		return 0, nil
	}

	products, err := s.products.Find(ctx, catalog.ProductQuery{ExternalCategory: m.ExternalCategory})
	if err != nil {
		return 0, err
	}
	if len(products) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	n, err := s.products.AssignCategories(ctx, ids, assignment)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Applied category mapping",
		zap.String("external_category", m.ExternalCategory),
		zap.Int64("products", n),
	)
	return n, nil
}

func (s *CategoryService) view(ctx context.Context, m *enrichment.CategoryMapping) (*MappingView, error) {
	count, err := s.products.Count(ctx, catalog.ProductQuery{ExternalCategory: m.ExternalCategory})
	if err != nil {
		return nil, err
	}
	return &MappingView{
		ID:                 m.ID,
		ExternalCategory:   m.ExternalCategory,
		GoogleCategoryPath: m.GoogleCategoryPath,
		PublicCategoryID:   m.PublicCategoryID,
		InternalCategoryID: m.InternalCategoryID,
		AutoPublish:        m.AutoPublish,
		ProductCount:       count,
		UpdatedAt:          m.UpdatedAt,
	}, nil
}

// Ensure CategoryService implements CategoryResolver
var _ CategoryResolver = (*CategoryService)(nil)
