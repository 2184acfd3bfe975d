package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/enrichment/backend/internal/domain/enrichment"
)

func sumByName(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestEnrichmentMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewEnrichmentMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSourceResult(ctx, enrichment.SourceIcecat, enrichment.Succeeded(&enrichment.ProductData{}))
	m.RecordSourceResult(ctx, enrichment.SourceBarcodeLookup, enrichment.Failed(enrichment.CauseNotFound, "nope"))
	m.RecordEntry(ctx, enrichment.SyncTypeNew, enrichment.OutcomeSynced)
	m.RecordEntry(ctx, enrichment.SyncTypeNew, enrichment.OutcomeError)
	m.RecordEntry(ctx, enrichment.SyncTypeNew, enrichment.OutcomeNoData)
	m.RecordRun(ctx, enrichment.SyncTypeNew, enrichment.RunStatusCompleted, 3*time.Second)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), sumByName(t, rm, "enrichment_source_calls_total"))
	assert.Equal(t, int64(3), sumByName(t, rm, "enrichment_entries_total"))
	assert.Equal(t, int64(1), sumByName(t, rm, "enrichment_runs_total"))
}

func TestStartSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	_, span := StartSpan(context.Background(), "orchestrator", "enrich", AttrSource.String("icecat"))
	RecordError(span, errors.New("commit failed"))
	RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "orchestrator.enrich", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Len(t, ended[0].Events(), 1)
}

func TestDisabledProviders(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	tp, err := NewTracerProvider(ctx, Config{Enabled: false}, logger)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("x"))
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	_, err = NewEnrichmentMetrics(mp.Meter("x"))
	assert.NoError(t, err)
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.False(t, lp.Core(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestTracerProvider_EnableSpanProfiles(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	disabled := &TracerProvider{logger: zap.NewNop()}
	disabled.EnableSpanProfiles()
	assert.False(t, disabled.IsSpanProfilesEnabled())

	sdk := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = sdk.Shutdown(context.Background()) })
	tp := &TracerProvider{provider: sdk, logger: zap.NewNop(), config: Config{Enabled: true}}

	tp.EnableSpanProfiles()
	tp.EnableSpanProfiles()

	assert.True(t, tp.IsSpanProfilesEnabled())
	assert.Same(t, tp.spanProfiles, otel.GetTracerProvider())
	_, span := tp.Tracer("enrichment").Start(context.Background(), "lookup")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased")
}
