package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/enrichment/backend/internal/infrastructure/logger"
	"github.com/enrichment/backend/internal/infrastructure/telemetry"
)

// DefaultManualBatchSize caps manual runs over a status domain
const DefaultManualBatchSize = 10

// ManualDomain selects the entries of a manual run
type ManualDomain string

const (
	DomainSelected      ManualDomain = "selected"
	DomainAllNotSynced  ManualDomain = "all_not_synced"
	DomainAllWithErrors ManualDomain = "all_with_errors"
	DomainAllOutdated   ManualDomain = "all_outdated"
)

// IsValid checks if the domain is valid
func (d ManualDomain) IsValid() bool {
	switch d {
	case DomainSelected, DomainAllNotSynced, DomainAllWithErrors, DomainAllOutdated:
		return true
	}
	return false
}

// ManualRequest describes an operator-triggered bulk run
type ManualRequest struct {
	Domain         ManualDomain
	ProductIDs     []uuid.UUID
	BatchSize      int
	ForceUpdate    bool
	SourceOverride enrichment.SourceOverride
}

// RunSummary reports the counters of a finished run
type RunSummary struct {
	RunID    uuid.UUID            `json:"run_id"`
	SyncType enrichment.SyncType  `json:"sync_type"`
	Status   enrichment.RunStatus `json:"status"`
	Total    int                  `json:"total"`
	Synced   int                  `json:"synced"`
	NoData   int                  `json:"no_data"`
	Errors   int                  `json:"errors"`
	Skipped  int                  `json:"skipped"`
	Sources  string               `json:"sources_used"`
	Message  string               `json:"message"`
}

// BatchRunner processes selections of catalog entries sequentially,
// keeping a sync log row current after every entry.
type BatchRunner struct {
	entries  enrichment.EntryRepository
	logs     enrichment.SyncLogRepository
	settings SettingsProvider
	enricher Enricher
	metrics  Metrics
	now      func() time.Time
	logger   *zap.Logger
}

// BatchRunnerOption configures the batch runner
type BatchRunnerOption func(*BatchRunner)

// WithBatchMetrics sets the metrics sink
func WithBatchMetrics(metrics Metrics) BatchRunnerOption {
	return func(r *BatchRunner) {
		if metrics != nil {
			r.metrics = metrics
		}
	}
}

// WithBatchClock overrides the time source
func WithBatchClock(now func() time.Time) BatchRunnerOption {
	return func(r *BatchRunner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewBatchRunner creates a batch runner
func NewBatchRunner(
	entries enrichment.EntryRepository,
	logs enrichment.SyncLogRepository,
	settings SettingsProvider,
	enricher Enricher,
	logger *zap.Logger,
	opts ...BatchRunnerOption,
) *BatchRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &BatchRunner{
		entries:  entries,
		logs:     logs,
		settings: settings,
		enricher: enricher,
		metrics:  NoopMetrics,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a scheduled run of kind new or update
func (r *BatchRunner) Run(ctx context.Context, kind enrichment.SyncType) (*RunSummary, error) {
	if kind != enrichment.SyncTypeNew && kind != enrichment.SyncTypeUpdate {
		return nil, shared.NewDomainError("INVALID_SYNC_TYPE", "Scheduled runs must be new or update")
	}
	ctx, span := telemetry.StartSpan(ctx, "batch_runner", "run")
	defer span.End()

	run, err := r.open(ctx, kind)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	ctx, log := logger.WithRunID(ctx, r.logger, run.ID.String())
	log.Info("Enrichment run started", zap.String("sync_type", string(kind)))

	settings, err := r.settings.Load(ctx)
	if err != nil {
		return r.fail(ctx, log, run, fmt.Errorf("load settings: %w", err))
	}

	query := enrichment.NewEntriesQuery(settings.NewBatchSize)
	if kind == enrichment.SyncTypeUpdate {
		query = enrichment.OutdatedEntriesQuery(run.StartTime, settings.FreshnessDays, settings.UpdateBatchSize)
	}
	entries, err := r.entries.Find(ctx, query)
	if err != nil {
		return r.fail(ctx, log, run, fmt.Errorf("select entries: %w", err))
	}

	return r.process(ctx, log, run, entries, settings, nil)
}

// EnrichProduct enriches one entry on demand with the current settings.
// An empty barcode falls back to the entry's own barcode. No sync log is written.
func (r *BatchRunner) EnrichProduct(ctx context.Context, id uuid.UUID, barcode string) (*EnrichResult, error) {
	entry, err := r.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := r.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return r.enricher.Enrich(ctx, entry, barcode, settings)
}

// RunManual executes an operator-triggered run over a selection of entries
func (r *BatchRunner) RunManual(ctx context.Context, req ManualRequest) (*RunSummary, error) {
	if !req.Domain.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOMAIN", "Unknown selection domain: "+string(req.Domain))
	}
	if req.SourceOverride == "" {
		req.SourceOverride = enrichment.OverrideUseConfig
	}
	if !req.SourceOverride.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_OVERRIDE", "Unknown source override: "+string(req.SourceOverride))
	}
	if req.Domain == DomainSelected && len(req.ProductIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No products selected")
	}
	if req.BatchSize <= 0 {
		req.BatchSize = DefaultManualBatchSize
	}

	ctx, span := telemetry.StartSpan(ctx, "batch_runner", "run_manual")
	defer span.End()

	settings, err := r.settings.Load(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load settings: %w", err)
	}

	selected, err := r.entries.Find(ctx, r.manualQuery(req, settings))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("select entries: %w", err)
	}
	entries := selected[:0]
	for _, e := range selected {
		if e.HasBarcode() {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, shared.NewDomainError("NO_PRODUCTS_WITH_BARCODE", "None of the selected products has a barcode")
	}

	settings = settings.WithSourceOverride(req.SourceOverride)

	run, err := r.open(ctx, enrichment.SyncTypeManual)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	ctx, log := logger.WithRunID(ctx, r.logger, run.ID.String())
	log.Info("Manual enrichment run started",
		zap.String("domain", string(req.Domain)),
		zap.Int("entries", len(entries)),
		zap.String("source_override", string(req.SourceOverride)),
	)

	var skip func(*catalog.Product) bool
	if !req.ForceUpdate && req.Domain != DomainAllOutdated {
		skip = func(p *catalog.Product) bool {
			return p.EnrichmentStatus == catalog.EnrichmentStatusSynced
		}
	}
	return r.process(ctx, log, run, entries, settings, skip)
}

func (r *BatchRunner) manualQuery(req ManualRequest, settings enrichment.Settings) catalog.ProductQuery {
	switch req.Domain {
	case DomainAllNotSynced:
		return catalog.ProductQuery{
			Statuses:       []catalog.EnrichmentStatus{catalog.EnrichmentStatusNotSynced},
			RequireBarcode: true,
			Order:          catalog.OrderNewestFirst,
			Limit:          req.BatchSize,
		}
	case DomainAllWithErrors:
		return catalog.ProductQuery{
			Statuses:       []catalog.EnrichmentStatus{catalog.EnrichmentStatusError},
			RequireBarcode: true,
			Order:          catalog.OrderNewestFirst,
			Limit:          req.BatchSize,
		}
	case DomainAllOutdated:
		return enrichment.OutdatedEntriesQuery(r.now(), settings.FreshnessDays, req.BatchSize)
	}
	return catalog.ProductQuery{IDs: req.ProductIDs, Order: catalog.OrderNewestFirst}
}

// open force-closes abandoned runs of the same kind and persists a new running log
func (r *BatchRunner) open(ctx context.Context, kind enrichment.SyncType) (*enrichment.SyncLogRun, error) {
	now := r.now()
	stale, err := r.logs.FindRunning(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("find running logs: %w", err)
	}
	for i := range stale {
		prev := &stale[i]
		prev.ForceClose(now)
		if err := r.logs.Save(ctx, prev); err != nil {
			return nil, fmt.Errorf("close stale log %s: %w", prev.ID, err)
		}
		r.logger.Warn("Closed abandoned enrichment run",
			zap.String("run_id", prev.ID.String()),
			zap.String("sync_type", string(kind)),
		)
	}

	run, err := enrichment.NewSyncLogRun(kind, now)
	if err != nil {
		return nil, err
	}
	if err := r.logs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create sync log: %w", err)
	}
	return run, nil
}

func (r *BatchRunner) process(
	ctx context.Context,
	log *zap.Logger,
	run *enrichment.SyncLogRun,
	entries []catalog.Product,
	settings enrichment.Settings,
	skip func(*catalog.Product) bool,
) (*RunSummary, error) {
	run.Total = len(entries)
	if err := r.logs.Save(ctx, run); err != nil {
		return r.fail(ctx, log, run, fmt.Errorf("save sync log: %w", err))
	}

	skipped := 0
	used := make(map[enrichment.SourceID]bool)
	labels := telemetry.EnrichmentLabels(string(run.SyncType), enrichment.JoinSources(settings.EnabledSources()))
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return r.fail(ctx, log, run, err)
		}
		entry := &entries[i]
		if skip != nil && skip(entry) {
			skipped++
			continue
		}

		var outcome enrichment.Outcome
		var sources []enrichment.SourceID
		telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
			outcome, sources = r.processEntry(ctx, log, entry, settings)
		})
		run.Record(outcome)
		r.metrics.RecordEntry(ctx, run.SyncType, outcome)
		for _, s := range sources {
			used[s] = true
		}
		run.SourcesUsed = joinUsed(used, settings.EnabledSources())
		run.UpdatedAt = r.now()
		if err := r.logs.Save(ctx, run); err != nil {
			return r.fail(ctx, log, run, fmt.Errorf("save progress: %w", err))
		}
	}

	if err := run.Complete(r.now()); err != nil {
		return r.fail(ctx, log, run, err)
	}
	if err := r.logs.Save(ctx, run); err != nil {
		return r.fail(ctx, log, run, fmt.Errorf("save sync log: %w", err))
	}
	r.metrics.RecordRun(ctx, run.SyncType, run.Status, run.Duration())

	summary := summarize(run, skipped)
	log.Info("Enrichment run completed",
		zap.Int("total", run.Total),
		zap.Int("synced", run.SyncedCount),
		zap.Int("no_data", run.NoDataCount),
		zap.Int("errors", run.ErrorCount),
		zap.Int("skipped", skipped),
		zap.Duration("duration", run.Duration()),
	)
	return summary, nil
}

// processEntry enriches one entry. Unexpected errors and panics are stored
// on the entry and counted as errors; they never stop the batch.
func (r *BatchRunner) processEntry(ctx context.Context, log *zap.Logger, entry *catalog.Product, settings enrichment.Settings) (enrichment.Outcome, []enrichment.SourceID) {
	ctx, entryLog := logger.WithProductID(ctx, log, entry.ID.String())

	res, err := r.enrichGuarded(ctx, entry, settings)
	if err == nil && res != nil {
		if res.Outcome == "" {
			return enrichment.OutcomeError, nil
		}
		return res.Outcome, res.Sources
	}
	if err == nil {
		err = fmt.Errorf("enricher returned no result")
	}

	entryLog.Error("Entry enrichment failed", zap.Error(err))
	if recErr := r.entries.RecordFailure(context.WithoutCancel(ctx), entry.ID, err.Error(), r.now()); recErr != nil {
		entryLog.Error("Failed to record entry failure", zap.Error(recErr))
	}
	return enrichment.OutcomeError, nil
}

func (r *BatchRunner) enrichGuarded(ctx context.Context, entry *catalog.Product, settings enrichment.Settings) (res *EnrichResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("unexpected panic: %v", rec)
		}
	}()
	return r.enricher.Enrich(ctx, entry, "", settings)
}

// fail closes the run as failed even when ctx is already cancelled
func (r *BatchRunner) fail(ctx context.Context, log *zap.Logger, run *enrichment.SyncLogRun, cause error) (*RunSummary, error) {
	ctx = context.WithoutCancel(ctx)
	run.Fail(r.now(), cause.Error())
	if err := r.logs.Save(ctx, run); err != nil {
		log.Error("Failed to save failed sync log", zap.Error(err))
	}
	r.metrics.RecordRun(ctx, run.SyncType, run.Status, run.Duration())
	log.Error("Enrichment run failed", zap.Error(cause))
	return nil, cause
}

// joinUsed lists the used sources in priority order
func joinUsed(used map[enrichment.SourceID]bool, priority []enrichment.SourceID) string {
	var ordered []enrichment.SourceID
	seen := make(map[enrichment.SourceID]bool, len(used))
	for _, s := range append(priority, enrichment.AllSources()...) {
		if used[s] && !seen[s] {
			seen[s] = true
			ordered = append(ordered, s)
		}
	}
	return enrichment.JoinSources(ordered)
}

func summarize(run *enrichment.SyncLogRun, skipped int) *RunSummary {
	msg := fmt.Sprintf("Enrichment finished: %d synced, %d without data, %d errors", run.SyncedCount, run.NoDataCount, run.ErrorCount)
	if skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", skipped)
	}
	if run.SourcesUsed != "" {
		msg += ". Sources used: " + run.SourcesUsed
	}
	return &RunSummary{
		RunID:    run.ID,
		SyncType: run.SyncType,
		Status:   run.Status,
		Total:    run.Total,
		Synced:   run.SyncedCount,
		NoData:   run.NoDataCount,
		Errors:   run.ErrorCount,
		Skipped:  skipped,
		Sources:  run.SourcesUsed,
		Message:  msg,
	}
}
