package enrichment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	values map[string]string
	err    error
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string]string)}
}

func (s *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, s.err
}

func (s *mapStore) Set(_ context.Context, key, value string) error {
	if s.err != nil {
		return s.err
	}
	s.values[key] = value
	return nil
}

func (s *mapStore) List(_ context.Context, prefix string) (map[string]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]string)
	for k, v := range s.values {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

type ruleList []FieldMappingRule

func (r ruleList) FindAll(context.Context) ([]FieldMappingRule, error) {
	return r, nil
}

func TestLoadSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store yields defaults", func(t *testing.T) {
		s, err := LoadSettings(ctx, newMapStore(), ruleList(nil))
		require.NoError(t, err)

		assert.False(t, s.BarcodeLookupEnabled)
		assert.True(t, s.IcecatEnabled)
		assert.Equal(t, PriorityBarcodeLookupFirst, s.Priority)
		assert.Equal(t, 10, s.NewBatchSize)
		assert.Equal(t, 100, s.UpdateBatchSize)
		assert.Equal(t, 30, s.FreshnessDays)
		assert.False(t, s.SyncDescription)
		assert.True(t, s.SyncImages)
		assert.True(t, s.SyncSpecifications)
		assert.False(t, s.SyncAttributes)
		assert.True(t, s.AutoSyncEnabled)
		assert.Equal(t, []SourceID{SourceIcecat}, s.EnabledSources())
		_, ok := s.Rules.Rule(FieldName)
		assert.True(t, ok)
	})

	t.Run("reads stored values with legacy booleans", func(t *testing.T) {
		store := newMapStore()
		store.values[SettingsPrefix+KeyBarcodeLookupEnabled] = "True"
		store.values[SettingsPrefix+KeySourcePriority] = "icecat_first"
		store.values[SettingsPrefix+KeyNewBatchSize] = "25"
		store.values[SettingsPrefix+KeySyncImages] = "false"
		store.values[SettingsPrefix+KeyIcecatLanguage] = "nl"
		store.values["other_module.key"] = "ignored"

		s, err := LoadSettings(ctx, store, nil)
		require.NoError(t, err)
		assert.True(t, s.BarcodeLookupEnabled)
		assert.Equal(t, PriorityIcecatFirst, s.Priority)
		assert.Equal(t, 25, s.NewBatchSize)
		assert.False(t, s.SyncImages)
		assert.Equal(t, "nl", s.FetchOptions().Language)
		assert.Equal(t, []SourceID{SourceIcecat, SourceBarcodeLookup}, s.EnabledSources())
	})

	t.Run("malformed values keep defaults", func(t *testing.T) {
		store := newMapStore()
		store.values[SettingsPrefix+KeySourcePriority] = "random"
		store.values[SettingsPrefix+KeyUpdateBatchSize] = "lots"

		s, err := LoadSettings(ctx, store, nil)
		require.NoError(t, err)
		assert.Equal(t, PriorityBarcodeLookupFirst, s.Priority)
		assert.Equal(t, 100, s.UpdateBatchSize)
	})

	t.Run("non-positive batch sizes and freshness keep defaults", func(t *testing.T) {
		store := newMapStore()
		store.values[SettingsPrefix+KeyNewBatchSize] = "0"
		store.values[SettingsPrefix+KeyUpdateBatchSize] = "-5"
		store.values[SettingsPrefix+KeyFreshnessDays] = "0"
		store.values[SettingsPrefix+KeyMaxGalleryImages] = "-1"

		s, err := LoadSettings(ctx, store, nil)
		require.NoError(t, err)
		assert.Equal(t, 10, s.NewBatchSize)
		assert.Equal(t, 100, s.UpdateBatchSize)
		assert.Equal(t, 30, s.FreshnessDays)
		assert.Equal(t, DefaultSettings().MaxGalleryImages, s.MaxGalleryImages)
		assert.NoError(t, s.Validate())
		assert.Equal(t, 10, NewEntriesQuery(s.NewBatchSize).Limit)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		store := newMapStore()
		store.err = errors.New("db down")
		_, err := LoadSettings(ctx, store, nil)
		require.Error(t, err)
	})

	t.Run("duplicate rules fail", func(t *testing.T) {
		rules := ruleList{{Field: FieldName}, {Field: FieldName}}
		_, err := LoadSettings(ctx, newMapStore(), rules)
		require.Error(t, err)
	})
}

func TestSaveSettings(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()

	s := DefaultSettings()
	s.BarcodeLookupEnabled = true
	s.UpdateBatchSize = 50
	require.NoError(t, SaveSettings(ctx, store, s))

	assert.Equal(t, "True", store.values[SettingsPrefix+KeyBarcodeLookupEnabled])
	assert.Equal(t, "50", store.values[SettingsPrefix+KeyUpdateBatchSize])

	loaded, err := LoadSettings(ctx, store, nil)
	require.NoError(t, err)
	assert.True(t, loaded.BarcodeLookupEnabled)
	assert.Equal(t, 50, loaded.UpdateBatchSize)

	t.Run("rejects invalid snapshot", func(t *testing.T) {
		bad := DefaultSettings()
		bad.NewBatchSize = 0
		require.Error(t, SaveSettings(ctx, newMapStore(), bad))

		bad = DefaultSettings()
		bad.Priority = "random"
		require.Error(t, SaveSettings(ctx, newMapStore(), bad))
	})
}

func TestSettings_WithSourceOverride(t *testing.T) {
	base := DefaultSettings()

	tests := []struct {
		name     string
		override SourceOverride
		expected []SourceID
	}{
		{"use config", OverrideUseConfig, []SourceID{SourceIcecat}},
		{"barcodelookup only", OverrideBarcodeLookupOnly, []SourceID{SourceBarcodeLookup}},
		{"icecat only", OverrideIcecatOnly, []SourceID{SourceIcecat}},
		{"both", OverrideBoth, []SourceID{SourceBarcodeLookup, SourceIcecat}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derived := base.WithSourceOverride(tt.override)
			assert.Equal(t, tt.expected, derived.EnabledSources())
		})
	}

	assert.False(t, base.BarcodeLookupEnabled)
	assert.Equal(t, PriorityBarcodeLookupFirst, base.Priority)
}
