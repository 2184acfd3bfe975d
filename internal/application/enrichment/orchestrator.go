package enrichment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/infrastructure/telemetry"
)

// Result codes for unsuccessful enrichments
const (
	CodeNoBarcode = "NO_BARCODE"
	CodeNoSources = "NO_SOURCES_CONFIGURED"
	CodeNoData    = "NO_DATA"
)

const (
	msgNoBarcode = "Product has no barcode (EAN/GTIN)"
	msgNoSources = "No enrichment sources configured"
)

// EnrichResult is the outcome of enriching one entry
type EnrichResult struct {
	Success bool                  `json:"success"`
	Outcome enrichment.Outcome    `json:"outcome"`
	Code    string                `json:"code,omitempty"`
	Message string                `json:"message"`
	Sources []enrichment.SourceID `json:"sources,omitempty"`
	// Errors holds "source: message" for every source that failed, also on success
	Errors []string `json:"errors,omitempty"`
}

// Orchestrator enriches a single catalog entry from the enabled sources
// and commits the merged result as one write-set.
type Orchestrator struct {
	entries    enrichment.EntryWriter
	connectors map[enrichment.SourceID]enrichment.Connector
	images     ImageFetcher
	imageStore ImageStore
	categories CategoryResolver
	renderer   enrichment.SpecRenderer
	metrics    Metrics
	now        func() time.Time
	logger     *zap.Logger
}

// OrchestratorOption configures the orchestrator
type OrchestratorOption func(*Orchestrator)

// WithImages enables primary image and gallery downloads
func WithImages(fetcher ImageFetcher, store ImageStore) OrchestratorOption {
	return func(o *Orchestrator) {
		o.images = fetcher
		o.imageStore = store
	}
}

// WithCategoryResolver enables category mapping for source categories
func WithCategoryResolver(resolver CategoryResolver) OrchestratorOption {
	return func(o *Orchestrator) {
		o.categories = resolver
	}
}

// WithSpecRenderer sets the renderer used for specification markup
func WithSpecRenderer(renderer enrichment.SpecRenderer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.renderer = renderer
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(metrics Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator creates an orchestrator over the given connectors
func NewOrchestrator(entries enrichment.EntryWriter, connectors []enrichment.Connector, logger *zap.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		entries:    entries,
		connectors: make(map[enrichment.SourceID]enrichment.Connector, len(connectors)),
		metrics:    NoopMetrics,
		now:        time.Now,
		logger:     logger,
	}
	for _, c := range connectors {
		o.connectors[c.Source()] = c
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enrich queries the enabled sources for the entry and commits the merged write-set.
// Source failures are recorded in the result; only persistence errors are returned.
func (o *Orchestrator) Enrich(ctx context.Context, entry *catalog.Product, barcode string, settings enrichment.Settings) (*EnrichResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator", "enrich")
	defer span.End()
	log := o.logger.With(zap.String("product_id", entry.ID.String()))

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		barcode = entry.PrimaryBarcode()
	}
	if barcode == "" {
		return &EnrichResult{Outcome: enrichment.OutcomeError, Code: CodeNoBarcode, Message: msgNoBarcode}, nil
	}

	if err := o.entries.MarkPending(ctx, entry.ID); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("mark pending: %w", err)
	}

	sources := settings.EnabledSources()
	if len(sources) == 0 {
		ws := enrichment.NewWriteSet(entry)
		ws.MarkFailed(o.now(), catalog.EnrichmentStatusError, msgNoSources)
		if err := o.commit(ctx, entry.ID, ws); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		log.Warn("No enrichment sources configured")
		return &EnrichResult{Outcome: enrichment.OutcomeError, Code: CodeNoSources, Message: msgNoSources}, nil
	}

	log.Info("Enriching product",
		zap.String("barcode", barcode),
		zap.String("sources", enrichment.JoinSources(sources)),
	)

	ws := enrichment.NewWriteSet(entry)
	var used []enrichment.SourceID
	var failures []string
	for _, src := range sources {
		result := o.fetch(ctx, src, barcode, settings.FetchOptions())
		o.metrics.RecordSourceResult(ctx, src, result)
		if !result.Success || result.Data == nil {
			msg := result.Error
			if msg == "" {
				msg = "Unknown error"
			}
			failures = append(failures, fmt.Sprintf("%s: %s", src, msg))
			log.Warn("Source returned no data",
				zap.String("source", string(src)),
				zap.String("cause", string(result.Cause)),
				zap.String("error", msg),
			)
			continue
		}
		o.apply(ctx, entry, ws, result.Data, src, settings)
		used = append(used, src)
	}

	now := o.now()
	if len(used) == 0 {
		joined := strings.Join(failures, "\n")
		ws.MarkFailed(now, catalog.EnrichmentStatusNoData, joined)
		if err := o.commit(ctx, entry.ID, ws); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		return &EnrichResult{
			Outcome: enrichment.OutcomeNoData,
			Code:    CodeNoData,
			Message: "No data found in configured sources:\n" + joined,
			Errors:  failures,
		}, nil
	}

	ws.MarkSynced(now, used)
	if err := o.commit(ctx, entry.ID, ws); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	log.Info("Product enriched", zap.String("sources", enrichment.JoinSources(used)))
	return &EnrichResult{
		Success: true,
		Outcome: enrichment.OutcomeSynced,
		Message: "Product enriched with data from: " + enrichment.JoinSources(used),
		Sources: used,
		Errors:  failures,
	}, nil
}

// fetch calls one connector; a panicking connector counts as a failed source
func (o *Orchestrator) fetch(ctx context.Context, src enrichment.SourceID, barcode string, opts enrichment.FetchOptions) (result enrichment.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("Connector panicked", zap.String("source", string(src)), zap.Any("panic", rec))
			result = enrichment.Failed(enrichment.CauseUnknown, fmt.Sprintf("Unexpected error: %v", rec))
		}
	}()
	c, ok := o.connectors[src]
	if !ok {
		return enrichment.Failed(enrichment.CauseNotConfigured, "Source is not configured")
	}
	return c.Fetch(ctx, barcode, opts)
}

func (o *Orchestrator) commit(ctx context.Context, id uuid.UUID, ws *enrichment.WriteSet) error {
	if err := o.entries.Commit(ctx, id, ws); err != nil {
		return fmt.Errorf("commit write-set: %w", err)
	}
	return nil
}

// apply merges one source's data into the write-set. Every field check runs
// against the entry as persisted before this run.
func (o *Orchestrator) apply(ctx context.Context, entry *catalog.Product, ws *enrichment.WriteSet, data *enrichment.ProductData, src enrichment.SourceID, settings enrichment.Settings) {
	rules := settings.Rules

	if data.Name != "" && rules.CanWrite(entry, enrichment.FieldName, src) {
		ws.Set(enrichment.FieldName, data.Name)
	}

	if src == enrichment.SourceIcecat {
		o.applyContent(entry, ws, data, src, settings)
	} else if data.Description != "" && rules.CanWrite(entry, enrichment.FieldDescriptionSale, src) {
		ws.Set(enrichment.FieldDescriptionSale, data.Description)
	}

	if settings.SyncImages {
		o.applyPrimaryImage(ctx, entry, ws, data, src, rules)
		if src == enrichment.SourceIcecat && len(data.Images) > 0 {
			o.applyGallery(ctx, entry, ws, data, src, settings.MaxGalleryImages)
		}
	}

	if len(data.Specifications) > 0 {
		ws.Specifications = data.Specifications
		if settings.SyncAttributes {
			ws.ReplaceAttributes = true
			ws.Attributes = enrichment.BuildAttributeGroups(data.Specifications)
		}
	}

	if data.Brand != "" {
		ws.BrandName = data.Brand
	}

	if src == enrichment.SourceIcecat && data.Category != "" && o.categories != nil {
		assignment, err := o.categories.Resolve(ctx, data.Category)
		if err != nil {
			o.logger.Warn("Category mapping failed",
				zap.String("category", data.Category),
				zap.Error(err),
			)
		} else if !assignment.IsEmpty() {
			ws.Category = &assignment
		}
	}

	recordProvenance(ws, data, src)
}

// applyContent builds the description from the source text and the rendered specification sheet
func (o *Orchestrator) applyContent(entry *catalog.Product, ws *enrichment.WriteSet, data *enrichment.ProductData, src enrichment.SourceID, settings enrichment.Settings) {
	var parts []string
	if settings.SyncDescription && data.Description != "" {
		parts = append(parts, data.Description)
	}

	if settings.SyncSpecifications && len(data.Specifications) > 0 && o.renderer != nil {
		sheet := enrichment.BuildSpecSheet(data.Specifications)
		for _, spec := range sheet.Skipped {
			o.logger.Warn("Skipping specification with empty name or value",
				zap.String("group", spec.GroupName()),
				zap.String("name", spec.Name),
				zap.String("value", spec.Value),
			)
		}
		if highlights, err := o.renderer.RenderHighlights(sheet.Highlights); err != nil {
			o.logger.Warn("Failed to render highlights", zap.Error(err))
		} else if highlights != "" {
			ws.HighlightsHTML = &highlights
		}
		if full, err := o.renderer.RenderSections(sheet.Sections); err != nil {
			o.logger.Warn("Failed to render specifications", zap.Error(err))
		} else if full != "" {
			parts = append(parts, full)
		}
	}

	if len(parts) == 0 {
		return
	}
	combined := strings.Join(parts, "\n\n")
	if settings.Rules.CanWrite(entry, enrichment.FieldDescriptionSale, src) {
		ws.Set(enrichment.FieldDescriptionSale, combined)
	}
	if settings.Rules.CanWrite(entry, enrichment.FieldWebsiteDescription, src) {
		ws.Set(enrichment.FieldWebsiteDescription, combined)
	}
}

func (o *Orchestrator) applyPrimaryImage(ctx context.Context, entry *catalog.Product, ws *enrichment.WriteSet, data *enrichment.ProductData, src enrichment.SourceID, rules enrichment.RuleSet) {
	if data.ImageURL == "" || o.images == nil || o.imageStore == nil {
		return
	}
	if !rules.CanWrite(entry, enrichment.FieldImage, src) {
		return
	}
	if key, ok := o.storeImage(ctx, entry.ID, src, data.ImageURL); ok {
		ws.Set(enrichment.FieldImage, key)
	}
}

// applyGallery replaces the source's gallery with every picture after the first,
// skipping repeated URLs and stopping at the configured cap.
func (o *Orchestrator) applyGallery(ctx context.Context, entry *catalog.Product, ws *enrichment.WriteSet, data *enrichment.ProductData, src enrichment.SourceID, maxImages int) {
	if o.images == nil || o.imageStore == nil {
		return
	}
	ws.GallerySource = src
	ws.ReplaceGallery = true
	ws.Gallery = nil
	if maxImages <= 0 {
		return
	}

	seen := map[string]bool{data.ImageURL: true}
	for idx, ref := range data.Images {
		if idx == 0 || ref.URL == "" || seen[ref.URL] {
			seen[ref.URL] = true
			continue
		}
		seen[ref.URL] = true

		key, ok := o.storeImage(ctx, entry.ID, src, ref.URL)
		if !ok {
			continue
		}
		name := ref.Title
		if name == "" {
			name = fmt.Sprintf("Icecat Image %d", idx+1)
		}
		ws.Gallery = append(ws.Gallery, enrichment.GalleryImage{
			Name:       name,
			StorageKey: key,
			SourceURL:  ref.URL,
			Sequence:   idx,
		})
		if len(ws.Gallery) >= maxImages {
			return
		}
	}
}

func (o *Orchestrator) storeImage(ctx context.Context, productID uuid.UUID, src enrichment.SourceID, url string) (string, bool) {
	img, ok := o.images.Fetch(ctx, url)
	if !ok {
		return "", false
	}
	key := ImageKey(productID, src, url, img.ContentType)
	if err := o.imageStore.Put(ctx, key, img.Data, img.ContentType); err != nil {
		o.logger.Warn("Failed to store image",
			zap.String("url", url),
			zap.String("key", key),
			zap.Error(err),
		)
		return "", false
	}
	return key, true
}

// ImageKey derives a stable storage key from the product, source and image URL
func ImageKey(productID uuid.UUID, src enrichment.SourceID, url, contentType string) string {
	return fmt.Sprintf("products/%s/%s/%s%s", productID, src, uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)), extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}

func recordProvenance(ws *enrichment.WriteSet, data *enrichment.ProductData, src enrichment.SourceID) {
	p := &ws.Provenance
	switch src {
	case enrichment.SourceBarcodeLookup:
		p.BarcodeLookupUsed = true
		p.BarcodeLookupID = data.SourceID
		p.BarcodeLookupBrand = data.Brand
		p.BarcodeLookupMPN = data.MPN
	case enrichment.SourceIcecat:
		p.IcecatUsed = true
		p.IcecatID = data.SourceID
		p.IcecatBrand = data.Brand
		p.IcecatCategory = data.Category
		p.IcecatQuality = data.Quality
	}
}

// Ensure Orchestrator implements Enricher
var _ Enricher = (*Orchestrator)(nil)
