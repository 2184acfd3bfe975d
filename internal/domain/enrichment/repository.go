package enrichment

import (
	"context"
	"time"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// EntryWriter applies enrichment state to catalog entries
type EntryWriter interface {
	// MarkPending durably sets the entry status to pending
	MarkPending(ctx context.Context, id uuid.UUID) error

	// Commit applies the whole write-set in a single transaction
	Commit(ctx context.Context, id uuid.UUID, ws *WriteSet) error

	// RecordFailure stores an unexpected error on the entry
	RecordFailure(ctx context.Context, id uuid.UUID, message string, at time.Time) error
}

// EntryRepository is the catalog store as seen by the batch runner
type EntryRepository interface {
	catalog.ProductReader
	catalog.ProductFinder
	EntryWriter
}

// NewEntriesQuery selects never-synced or pending entries with a barcode, newest first
func NewEntriesQuery(limit int) catalog.ProductQuery {
	return catalog.ProductQuery{
		Statuses:       []catalog.EnrichmentStatus{catalog.EnrichmentStatusNotSynced, catalog.EnrichmentStatusPending},
		RequireBarcode: true,
		Order:          catalog.OrderNewestFirst,
		Limit:          limit,
	}
}

// OutdatedEntriesQuery selects synced entries with a barcode outside the freshness window, oldest sync first
func OutdatedEntriesQuery(now time.Time, freshnessDays, limit int) catalog.ProductQuery {
	cutoff := now.AddDate(0, 0, -freshnessDays)
	return catalog.ProductQuery{
		Statuses:           []catalog.EnrichmentStatus{catalog.EnrichmentStatusSynced},
		RequireBarcode:     true,
		SyncedBefore:       &cutoff,
		IncludeNeverSynced: true,
		Order:              catalog.OrderOldestSyncFirst,
		Limit:              limit,
	}
}

// SyncLogFilter narrows a sync log listing
type SyncLogFilter struct {
	SyncType SyncType
	Status   RunStatus
	Page     int
	PageSize int
	OrderBy  string // defaults to start_time
	OrderDir string // defaults to desc
}

// SyncLogRepository persists sync log rows
type SyncLogRepository interface {
	// Create inserts a new row
	Create(ctx context.Context, run *SyncLogRun) error

	// Save updates counters and status of an existing row
	Save(ctx context.Context, run *SyncLogRun) error

	// FindByID finds a row by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncLogRun, error)

	// FindRunning finds rows of a sync type still marked running
	FindRunning(ctx context.Context, syncType SyncType) ([]SyncLogRun, error)

	// List returns rows newest first with the total count
	List(ctx context.Context, filter SyncLogFilter) ([]SyncLogRun, int64, error)
}

// FieldMappingRuleRepository persists field mapping rules
type FieldMappingRuleRepository interface {
	FieldRuleSource

	// FindByField finds the rule of a field
	FindByField(ctx context.Context, field Field) (*FieldMappingRule, error)

	// Save creates or updates a rule; a second rule for the same field is rejected
	Save(ctx context.Context, rule *FieldMappingRule) error

	// DeleteByField removes the rule of a field
	DeleteByField(ctx context.Context, field Field) error
}

// CategoryMappingRepository persists category mappings
type CategoryMappingRepository interface {
	// FindByID finds a mapping by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*CategoryMapping, error)

	// FindByExternal finds a mapping by its external category
	FindByExternal(ctx context.Context, external string) (*CategoryMapping, error)

	// Create inserts a mapping; returns shared.ErrAlreadyExists on a duplicate external category
	Create(ctx context.Context, mapping *CategoryMapping) error

	// Save updates an existing mapping
	Save(ctx context.Context, mapping *CategoryMapping) error

	// FindAll lists mappings ordered by external category
	FindAll(ctx context.Context) ([]CategoryMapping, error)
}
