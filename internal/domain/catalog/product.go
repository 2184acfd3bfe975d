package catalog

import (
	"strings"
	"time"

	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EnrichmentStatus tracks where a product is in the enrichment lifecycle
type EnrichmentStatus string

const (
	EnrichmentStatusNotSynced EnrichmentStatus = "not_synced"
	EnrichmentStatusPending   EnrichmentStatus = "pending"
	EnrichmentStatusSynced    EnrichmentStatus = "synced"
	EnrichmentStatusError     EnrichmentStatus = "error"
	EnrichmentStatusNoData    EnrichmentStatus = "no_data"
)

// IsValid checks if the status is valid
func (s EnrichmentStatus) IsValid() bool {
	switch s {
	case EnrichmentStatusNotSynced, EnrichmentStatusPending, EnrichmentStatusSynced,
		EnrichmentStatusError, EnrichmentStatusNoData:
		return true
	}
	return false
}

// String returns the string value
func (s EnrichmentStatus) String() string {
	return string(s)
}

// ProductVariant is a sellable variant of a product; barcodes live on variants
type ProductVariant struct {
	ID       uuid.UUID
	SKU      string
	Barcode  string
	Sequence int
}

// SourceProvenance records what each upstream source last reported for a product
type SourceProvenance struct {
	BarcodeLookupUsed  bool
	BarcodeLookupID    string
	BarcodeLookupBrand string
	BarcodeLookupMPN   string
	IcecatUsed         bool
	IcecatID           string
	IcecatBrand        string
	IcecatCategory     string
	IcecatQuality      string
}

// Product is a catalog entry being enriched.
// Enrichment status fields are only changed through enrichment write-sets.
type Product struct {
	shared.BaseAggregateRoot
	Name                 string
	DescriptionSale      string
	DescriptionEcommerce string
	WebsiteDescription   string
	HighlightsHTML       string
	ImageKey             string // storage key of the primary image
	BrandID              *uuid.UUID
	CategoryID           *uuid.UUID // internal category
	PublicCategoryIDs    []uuid.UUID
	IsPublished          bool
	Variants             []ProductVariant
	Specifications       []Specification // raw specifications as last fetched

	EnrichmentStatus   EnrichmentStatus
	EnrichmentLastSync *time.Time
	EnrichmentError    string
	SourcesUsed        string
	Provenance         SourceProvenance
}

// NewProduct creates a new product that has never been enriched
func NewProduct(name string, barcodes ...string) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		EnrichmentStatus:  EnrichmentStatusNotSynced,
	}
	for i, code := range barcodes {
		p.Variants = append(p.Variants, ProductVariant{
			ID:       uuid.New(),
			Barcode:  strings.TrimSpace(code),
			Sequence: i,
		})
	}
	return p, nil
}

// PrimaryBarcode returns the barcode of the first variant that has one
func (p *Product) PrimaryBarcode() string {
	for _, v := range p.Variants {
		if code := strings.TrimSpace(v.Barcode); code != "" {
			return code
		}
	}
	return ""
}

// HasBarcode reports whether any variant carries a barcode
func (p *Product) HasBarcode() bool {
	return p.PrimaryBarcode() != ""
}

// HasPublicCategory reports whether the product is already listed in the given public category
func (p *Product) HasPublicCategory(id uuid.UUID) bool {
	for _, existing := range p.PublicCategoryIDs {
		if existing == id {
			return true
		}
	}
	return false
}

var _ shared.AggregateRoot = (*Product)(nil)
