// Package enrichment coordinates catalog enrichment: single-entry orchestration,
// scheduled and manual batch runs, and the admin services around them.
package enrichment

import (
	"context"
	"time"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/infrastructure/source/imaging"
)

// ImageFetcher downloads and optimizes one image; failures are reported as ok=false
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*imaging.Image, bool)
}

// ImageStore persists image bytes under a key
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// CategoryResolver projects an external category onto the catalog taxonomies
type CategoryResolver interface {
	Resolve(ctx context.Context, external string) (catalog.CategoryAssignment, error)
}

// Metrics receives enrichment counters
type Metrics interface {
	RecordSourceResult(ctx context.Context, source enrichment.SourceID, result enrichment.Result)
	RecordEntry(ctx context.Context, syncType enrichment.SyncType, outcome enrichment.Outcome)
	RecordRun(ctx context.Context, syncType enrichment.SyncType, status enrichment.RunStatus, d time.Duration)
}

// SettingsProvider loads one settings snapshot
type SettingsProvider interface {
	Load(ctx context.Context) (enrichment.Settings, error)
}

// Enricher enriches one catalog entry
type Enricher interface {
	Enrich(ctx context.Context, entry *catalog.Product, barcode string, settings enrichment.Settings) (*EnrichResult, error)
}

type noopMetrics struct{}

func (noopMetrics) RecordSourceResult(context.Context, enrichment.SourceID, enrichment.Result) {}
func (noopMetrics) RecordEntry(context.Context, enrichment.SyncType, enrichment.Outcome)       {}
func (noopMetrics) RecordRun(context.Context, enrichment.SyncType, enrichment.RunStatus, time.Duration) {
}

// NoopMetrics discards every measurement
var NoopMetrics Metrics = noopMetrics{}
