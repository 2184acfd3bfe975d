package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProductOrder selects the ordering of a product query
type ProductOrder string

const (
	// OrderNewestFirst sorts by creation time, newest first
	OrderNewestFirst ProductOrder = "newest_first"
	// OrderOldestSyncFirst sorts by last sync time, never-synced and oldest first
	OrderOldestSyncFirst ProductOrder = "oldest_sync_first"
)

// ProductQuery filters products for enrichment selection.
// Zero values mean "no constraint".
type ProductQuery struct {
	IDs            []uuid.UUID
	Statuses       []EnrichmentStatus
	RequireBarcode bool
	// SyncedBefore keeps products whose last sync is older than this instant
	SyncedBefore *time.Time
	// IncludeNeverSynced widens SyncedBefore to products that were never synced
	IncludeNeverSynced bool
	ExternalCategory   string
	Order              ProductOrder
	Limit              int
}

// ProductReader loads single products
type ProductReader interface {
	// FindByID finds a product with its variants by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
}

// ProductFinder selects products by query
type ProductFinder interface {
	// Find returns products matching the query in the requested order
	Find(ctx context.Context, q ProductQuery) ([]Product, error)

	// Count counts products matching the query, ignoring Limit and Order
	Count(ctx context.Context, q ProductQuery) (int64, error)
}

// ProductWriter persists products outside the enrichment flow
type ProductWriter interface {
	// Save creates or updates a product and its variants
	Save(ctx context.Context, product *Product) error

	// SaveSpecifications replaces the stored raw specifications
	SaveSpecifications(ctx context.Context, id uuid.UUID, specs []Specification) error

	// AssignCategories applies a category assignment to many products at once
	AssignCategories(ctx context.Context, ids []uuid.UUID, assignment CategoryAssignment) (int64, error)
}

// ProductRepository combines product reads and writes
type ProductRepository interface {
	ProductReader
	ProductFinder
	ProductWriter
}

// CategoryAssignment projects an external category into the catalog taxonomies
type CategoryAssignment struct {
	PublicCategoryID   *uuid.UUID
	InternalCategoryID *uuid.UUID
	Publish            bool
}

// IsEmpty reports whether the assignment changes nothing
func (a CategoryAssignment) IsEmpty() bool {
	return a.PublicCategoryID == nil && a.InternalCategoryID == nil && !a.Publish
}

// CategoryRepository defines persistence for both taxonomies
type CategoryRepository interface {
	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindChild finds a category by name under a parent; a nil parent means root
	FindChild(ctx context.Context, kind CategoryKind, parentID *uuid.UUID, name string) (*Category, error)

	// Create inserts a new category
	Create(ctx context.Context, category *Category) error
}

// AttributeRepository exposes the maintenance operations on managed attributes
type AttributeRepository interface {
	// DeleteManaged deletes every managed attribute with its values and product lines
	DeleteManaged(ctx context.Context) (AttributeCleanupResult, error)
}

// AttributeCleanupResult counts rows removed by a managed attribute cleanup
type AttributeCleanupResult struct {
	Attributes int64 `json:"attributes"`
	Values     int64 `json:"values"`
	Lines      int64 `json:"lines"`
}
