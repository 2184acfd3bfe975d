package enrichment

import (
	"strings"
	"time"

	"github.com/enrichment/backend/internal/domain/catalog"
)

// GalleryImage is an extra image to attach after the primary one
type GalleryImage struct {
	Name       string
	StorageKey string
	SourceURL  string
	Sequence   int
}

// AttributeGroup is one managed attribute with its values, built from a specification group
type AttributeGroup struct {
	Name   string
	Values []string
}

// WriteSet accumulates every change of one enrichment run.
// It is committed to the catalog as a single atomic update.
type WriteSet struct {
	name               *string
	descriptionSale    *string
	websiteDescription *string
	image              *string

	HighlightsHTML *string
	// Specifications replaces the stored raw specifications when non-nil
	Specifications []catalog.Specification
	BrandName      string
	Category       *catalog.CategoryAssignment

	// Gallery replaces the images managed by GallerySource when ReplaceGallery is set
	GallerySource  SourceID
	ReplaceGallery bool
	Gallery        []GalleryImage

	// Attributes replaces managed attribute lines when ReplaceAttributes is set
	ReplaceAttributes bool
	Attributes        []AttributeGroup

	Provenance   catalog.SourceProvenance
	Status       catalog.EnrichmentStatus
	LastSync     *time.Time
	ErrorMessage *string
	SourcesUsed  *string
}

// NewWriteSet starts a write-set that keeps the entry's current provenance
func NewWriteSet(entry *catalog.Product) *WriteSet {
	return &WriteSet{Provenance: entry.Provenance}
}

func (w *WriteSet) slot(f Field) **string {
	switch f {
	case FieldName:
		return &w.name
	case FieldDescriptionSale:
		return &w.descriptionSale
	case FieldWebsiteDescription:
		return &w.websiteDescription
	case FieldImage:
		return &w.image
	}
	return nil
}

// Set stores a value for a field, replacing any earlier value in this write-set
func (w *WriteSet) Set(f Field, value string) bool {
	s := w.slot(f)
	if s == nil {
		return false
	}
	v := value
	*s = &v
	return true
}

// Value returns the value staged for a field
func (w *WriteSet) Value(f Field) (string, bool) {
	s := w.slot(f)
	if s == nil || *s == nil {
		return "", false
	}
	return **s, true
}

// Fields returns the fields with staged values, in AllFields order
func (w *WriteSet) Fields() []Field {
	var out []Field
	for _, f := range AllFields() {
		if _, ok := w.Value(f); ok {
			out = append(out, f)
		}
	}
	return out
}

// MarkSynced stages the successful tracking fields
func (w *WriteSet) MarkSynced(now time.Time, sources []SourceID) {
	w.Status = catalog.EnrichmentStatusSynced
	w.LastSync = &now
	empty := ""
	w.ErrorMessage = &empty
	used := JoinSources(sources)
	w.SourcesUsed = &used
}

// MarkFailed stages a failed outcome with the given status and message
func (w *WriteSet) MarkFailed(now time.Time, status catalog.EnrichmentStatus, message string) {
	w.Status = status
	w.LastSync = &now
	w.ErrorMessage = &message
}

// Apply copies the staged scalar fields onto a product.
// Relations (brand, gallery, attributes) are resolved by the store.
func (w *WriteSet) Apply(p *catalog.Product) {
	if v, ok := w.Value(FieldName); ok {
		p.Name = v
	}
	if v, ok := w.Value(FieldDescriptionSale); ok {
		p.DescriptionSale = v
	}
	if v, ok := w.Value(FieldWebsiteDescription); ok {
		p.WebsiteDescription = v
	}
	if v, ok := w.Value(FieldImage); ok {
		p.ImageKey = v
	}
	if w.HighlightsHTML != nil {
		p.HighlightsHTML = *w.HighlightsHTML
	}
	if w.Specifications != nil {
		p.Specifications = w.Specifications
	}
	if w.Category != nil {
		if id := w.Category.PublicCategoryID; id != nil && !p.HasPublicCategory(*id) {
			p.PublicCategoryIDs = append(p.PublicCategoryIDs, *id)
		}
		if w.Category.InternalCategoryID != nil {
			p.CategoryID = w.Category.InternalCategoryID
		}
		if w.Category.Publish {
			p.IsPublished = true
		}
	}
	p.Provenance = w.Provenance
	if w.Status != "" {
		p.EnrichmentStatus = w.Status
	}
	if w.LastSync != nil {
		t := *w.LastSync
		p.EnrichmentLastSync = &t
	}
	if w.ErrorMessage != nil {
		p.EnrichmentError = *w.ErrorMessage
	}
	if w.SourcesUsed != nil {
		p.SourcesUsed = *w.SourcesUsed
	}
}

// JoinSources renders sources as a comma separated list
func JoinSources(sources []SourceID) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// SplitSources parses a comma separated list back into sources, dropping unknown entries
func SplitSources(s string) []SourceID {
	var out []SourceID
	for _, part := range strings.Split(s, ",") {
		id := SourceID(strings.TrimSpace(part))
		if id.IsValid() {
			out = append(out, id)
		}
	}
	return out
}
