package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("disabled returns a no-op profiler", func(t *testing.T) {
		cfg := ProfilerConfig{ServerAddress: "http://localhost:4040", ApplicationName: "enrichment-backend"}
		profiler, err := NewProfiler(cfg, logger)
		require.NoError(t, err)

		assert.False(t, profiler.IsEnabled())
		assert.Equal(t, "enrichment-backend", profiler.GetConfig().ApplicationName)
		assert.NoError(t, profiler.Stop())
		assert.NoError(t, profiler.Stop())
	})

	t.Run("enabled requires a server address", func(t *testing.T) {
		profiler, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "enrichment-backend"}, logger)
		require.Error(t, err)
		assert.Nil(t, profiler)
		assert.Contains(t, err.Error(), "server address is required")
	})

	t.Run("enabled requires an application name", func(t *testing.T) {
		profiler, err := NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, logger)
		require.Error(t, err)
		assert.Nil(t, profiler)
		assert.Contains(t, err.Error(), "application name is required")
	})

	t.Run("enabled rejects unknown profile types", func(t *testing.T) {
		_, err := NewProfiler(ProfilerConfig{
			Enabled:         true,
			ServerAddress:   "http://localhost:4040",
			ApplicationName: "enrichment-backend",
			ProfileTypes:    []string{"cpu", "heap"},
		}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"heap"`)
	})
}

func TestParseProfileTypes(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		types, err := ParseProfileTypes(nil)
		require.NoError(t, err)
		assert.Equal(t, []pyroscope.ProfileType{pyroscope.ProfileCPU, pyroscope.ProfileAllocSpace, pyroscope.ProfileInuseSpace}, types)
	})

	t.Run("normalizes and deduplicates", func(t *testing.T) {
		types, err := ParseProfileTypes([]string{" CPU ", "goroutines", "cpu", "block_count"})
		require.NoError(t, err)
		assert.Equal(t, []pyroscope.ProfileType{pyroscope.ProfileCPU, pyroscope.ProfileGoroutines, pyroscope.ProfileBlockCount}, types)
	})
}

func collectLabels(ctx context.Context) map[string]string {
	out := map[string]string{}
	pprof.ForLabels(ctx, func(key, value string) bool {
		out[key] = value
		return true
	})
	return out
}

func TestWithProfilingLabels(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the function without labels", func(t *testing.T) {
		called := false
		WithProfilingLabels(ctx, nil, func(context.Context) { called = true })
		assert.True(t, called)
	})

	t.Run("attaches sanitized labels", func(t *testing.T) {
		var got map[string]string
		WithProfilingLabels(ctx, map[string]string{
			"Sync-Type":  "update",
			"source":     strings.Repeat("x", MaxLabelValueLength+10),
			"product_id": "3f1c",
			"barcode":    "4006381333931",
			"empty":      "",
		}, func(c context.Context) { got = collectLabels(c) })

		assert.Equal(t, "update", got["sync_type"])
		assert.Len(t, got["source"], MaxLabelValueLength)
		assert.NotContains(t, got, "product_id")
		assert.NotContains(t, got, "barcode")
		assert.NotContains(t, got, "empty")
	})

	t.Run("caller map is not retained", func(t *testing.T) {
		labels := map[string]string{ProfilingLabelOperation: "enrich_entry"}
		var got map[string]string
		WithProfilingLabels(ctx, labels, func(c context.Context) {
			labels[ProfilingLabelOperation] = "changed"
			got = collectLabels(c)
		})
		assert.Equal(t, "enrich_entry", got[ProfilingLabelOperation])
	})

	t.Run("nested labels merge", func(t *testing.T) {
		var got map[string]string
		WithPprofLabels(ctx, EnrichmentLabels("new", ""), func(outer context.Context) {
			WithProfilingLabels(outer, map[string]string{ProfilingLabelSource: "icecat"}, func(inner context.Context) {
				got = collectLabels(inner)
			})
		})
		assert.Equal(t, map[string]string{"operation": "enrich_entry", "sync_type": "new", "source": "icecat"}, got)
	})
}

func TestSanitizeLabelKey(t *testing.T) {
	tests := map[string]string{
		"controller":  "controller",
		"Sync Type":   "sync_type",
		"run-kind":    "run_kind",
		"source.name": "sourcename",
		"!!!":         "",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, sanitizeLabelKey(in), in)
	}
}

func TestHTTPRequestLabels(t *testing.T) {
	assert.Equal(t, map[string]string{
		ProfilingLabelController: "products",
		ProfilingLabelRoute:      "/api/v1/products/:id/enrich",
		ProfilingLabelMethod:     "POST",
	}, HTTPRequestLabels("products", "/api/v1/products/:id/enrich", "POST"))
	assert.Empty(t, HTTPRequestLabels("", "", ""))
}
