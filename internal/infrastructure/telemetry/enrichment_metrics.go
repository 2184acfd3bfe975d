package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/enrichment/backend/internal/domain/enrichment"
)

// EnrichmentMetrics counts connector outcomes, processed entries and batch runs.
type EnrichmentMetrics struct {
	sourceCalls *Counter
	entries     *Counter
	runs        *Counter
	runDuration *Histogram
}

// NewEnrichmentMetrics registers the enrichment instruments on meter.
func NewEnrichmentMetrics(meter metric.Meter) (*EnrichmentMetrics, error) {
	sourceCalls, err := NewCounter(meter, "enrichment_source_calls_total",
		"Connector calls by source and failure cause", "{calls}")
	if err != nil {
		return nil, err
	}
	entries, err := NewCounter(meter, "enrichment_entries_total",
		"Processed catalog entries by run kind and outcome", "{entries}")
	if err != nil {
		return nil, err
	}
	runs, err := NewCounter(meter, "enrichment_runs_total",
		"Finished batch runs by kind and final status", "{runs}")
	if err != nil {
		return nil, err
	}
	runDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "enrichment_run_duration_seconds",
		Description: "Batch run wall time",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &EnrichmentMetrics{
		sourceCalls: sourceCalls,
		entries:     entries,
		runs:        runs,
		runDuration: runDuration,
	}, nil
}

// RecordSourceResult counts one connector call; successful calls carry cause "ok".
func (m *EnrichmentMetrics) RecordSourceResult(ctx context.Context, source enrichment.SourceID, result enrichment.Result) {
	cause := "ok"
	if !result.Success {
		cause = string(result.Cause)
		if cause == "" {
			cause = string(enrichment.CauseUnknown)
		}
	}
	m.sourceCalls.Inc(ctx, AttrSource.String(string(source)), AttrCause.String(cause))
}

// RecordEntry counts one processed entry.
func (m *EnrichmentMetrics) RecordEntry(ctx context.Context, syncType enrichment.SyncType, outcome enrichment.Outcome) {
	m.entries.Inc(ctx, AttrSyncType.String(string(syncType)), AttrOutcome.String(string(outcome)))
}

// RecordRun counts a finished run and its duration.
func (m *EnrichmentMetrics) RecordRun(ctx context.Context, syncType enrichment.SyncType, status enrichment.RunStatus, d time.Duration) {
	m.runs.Inc(ctx, AttrSyncType.String(string(syncType)), AttrStatus.String(string(status)))
	m.runDuration.RecordDuration(ctx, d, AttrSyncType.String(string(syncType)))
}
