package enrichment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/enrichment/backend/internal/domain/shared"
)

// SettingsPrefix namespaces every runtime setting in the key-value store
const SettingsPrefix = "product_enrichment."

// Setting keys, without the prefix
const (
	KeyBarcodeLookupEnabled = "barcodelookup_enabled"
	KeyIcecatEnabled        = "icecat_enabled"
	KeySourcePriority       = "source_priority"
	KeyNewBatchSize         = "new_product_batch_size"
	KeyUpdateBatchSize      = "update_batch_size"
	KeyFreshnessDays        = "freshness_days"
	KeySyncDescription      = "sync_description"
	KeySyncImages           = "sync_images"
	KeySyncSpecifications   = "sync_specifications"
	KeySyncAttributes       = "sync_attributes"
	KeyAutoSyncEnabled      = "auto_sync_enabled"
	KeyIcecatLanguage       = "icecat_language"
	KeyIcecatCatalogType    = "icecat_catalog_type"
	KeyMaxGalleryImages     = "max_gallery_images"
)

// Icecat catalog subscriptions
const (
	CatalogTypeOpen = "open"
	CatalogTypeFull = "full"
)

// SettingsStore is the key-value configuration store. Keys are passed fully qualified.
type SettingsStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context, prefix string) (map[string]string, error)
}

// FieldRuleSource provides the stored field mapping rules
type FieldRuleSource interface {
	FindAll(ctx context.Context) ([]FieldMappingRule, error)
}

// Settings is a snapshot of the runtime configuration taken once per run.
// It is a value type; derived snapshots never affect the stored settings.
type Settings struct {
	BarcodeLookupEnabled bool         `json:"barcodelookup_enabled"`
	IcecatEnabled        bool         `json:"icecat_enabled"`
	Priority             PriorityMode `json:"source_priority"`
	NewBatchSize         int          `json:"new_product_batch_size"`
	UpdateBatchSize      int          `json:"update_batch_size"`
	FreshnessDays        int          `json:"freshness_days"`
	SyncDescription      bool         `json:"sync_description"`
	SyncImages           bool         `json:"sync_images"`
	SyncSpecifications   bool         `json:"sync_specifications"`
	SyncAttributes       bool         `json:"sync_attributes"`
	AutoSyncEnabled      bool         `json:"auto_sync_enabled"`
	IcecatLanguage       string       `json:"icecat_language"`
	IcecatCatalogType    string       `json:"icecat_catalog_type"`
	MaxGalleryImages     int          `json:"max_gallery_images"`
	Rules                RuleSet      `json:"-"`
}

// DefaultSettings returns the settings used for keys that are not stored
func DefaultSettings() Settings {
	return Settings{
		BarcodeLookupEnabled: false,
		IcecatEnabled:        true,
		Priority:             PriorityBarcodeLookupFirst,
		NewBatchSize:         10,
		UpdateBatchSize:      100,
		FreshnessDays:        30,
		SyncDescription:      false,
		SyncImages:           true,
		SyncSpecifications:   true,
		SyncAttributes:       false,
		AutoSyncEnabled:      true,
		IcecatLanguage:       "en",
		IcecatCatalogType:    CatalogTypeOpen,
		MaxGalleryImages:     10,
		Rules:                DefaultRuleSet(),
	}
}

// EnabledSources returns the sources for this snapshot in priority order
func (s Settings) EnabledSources() []SourceID {
	return EnabledSources(s.BarcodeLookupEnabled, s.IcecatEnabled, s.Priority)
}

// FetchOptions returns the connector options for this snapshot
func (s Settings) FetchOptions() FetchOptions {
	return FetchOptions{Language: s.IcecatLanguage, CatalogType: s.IcecatCatalogType}
}

// Validate checks the snapshot before it is stored
func (s Settings) Validate() error {
	if !s.Priority.IsValid() {
		return shared.NewDomainError("INVALID_SETTING", "Unknown source priority: "+string(s.Priority))
	}
	if s.NewBatchSize <= 0 || s.UpdateBatchSize <= 0 {
		return shared.NewDomainError("INVALID_SETTING", "Batch sizes must be positive")
	}
	if s.FreshnessDays <= 0 {
		return shared.NewDomainError("INVALID_SETTING", "Freshness window must be at least one day")
	}
	if s.MaxGalleryImages < 0 {
		return shared.NewDomainError("INVALID_SETTING", "Max gallery images cannot be negative")
	}
	if s.IcecatCatalogType != CatalogTypeOpen && s.IcecatCatalogType != CatalogTypeFull {
		return shared.NewDomainError("INVALID_SETTING", "Icecat catalog type must be open or full")
	}
	return nil
}

// SourceOverride replaces the configured sources for one manual run
type SourceOverride string

const (
	OverrideUseConfig         SourceOverride = "use_config"
	OverrideBarcodeLookupOnly SourceOverride = "barcodelookup_only"
	OverrideIcecatOnly        SourceOverride = "icecat_only"
	OverrideBoth              SourceOverride = "both"
)

// IsValid checks if the override is valid
func (o SourceOverride) IsValid() bool {
	switch o {
	case OverrideUseConfig, OverrideBarcodeLookupOnly, OverrideIcecatOnly, OverrideBoth:
		return true
	}
	return false
}

// WithSourceOverride returns a copy of the snapshot with the override applied
func (s Settings) WithSourceOverride(o SourceOverride) Settings {
	switch o {
	case OverrideBarcodeLookupOnly:
		s.BarcodeLookupEnabled = true
		s.Priority = PriorityBarcodeLookupOnly
	case OverrideIcecatOnly:
		s.IcecatEnabled = true
		s.Priority = PriorityIcecatOnly
	case OverrideBoth:
		s.BarcodeLookupEnabled = true
		s.IcecatEnabled = true
		s.Priority = PriorityBarcodeLookupFirst
	}
	return s
}

// LoadSettings reads one snapshot from the store, falling back to defaults per key
func LoadSettings(ctx context.Context, store SettingsStore, rules FieldRuleSource) (Settings, error) {
	values, err := store.List(ctx, SettingsPrefix)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	s := DefaultSettings()
	get := func(key string) (string, bool) {
		v, ok := values[SettingsPrefix+key]
		return strings.TrimSpace(v), ok
	}
	boolVal := func(key string, dst *bool) {
		if v, ok := get(key); ok {
			if b, err := parseBool(v); err == nil {
				*dst = b
			}
		}
	}
	// intVal keeps the default for values below floor
	intVal := func(key string, dst *int, floor int) {
		if v, ok := get(key); ok {
			if n, err := strconv.Atoi(v); err == nil && n >= floor {
				*dst = n
			}
		}
	}

	boolVal(KeyBarcodeLookupEnabled, &s.BarcodeLookupEnabled)
	boolVal(KeyIcecatEnabled, &s.IcecatEnabled)
	if v, ok := get(KeySourcePriority); ok && PriorityMode(v).IsValid() {
		s.Priority = PriorityMode(v)
	}
	intVal(KeyNewBatchSize, &s.NewBatchSize, 1)
	intVal(KeyUpdateBatchSize, &s.UpdateBatchSize, 1)
	intVal(KeyFreshnessDays, &s.FreshnessDays, 1)
	boolVal(KeySyncDescription, &s.SyncDescription)
	boolVal(KeySyncImages, &s.SyncImages)
	boolVal(KeySyncSpecifications, &s.SyncSpecifications)
	boolVal(KeySyncAttributes, &s.SyncAttributes)
	boolVal(KeyAutoSyncEnabled, &s.AutoSyncEnabled)
	if v, ok := get(KeyIcecatLanguage); ok && v != "" {
		s.IcecatLanguage = v
	}
	if v, ok := get(KeyIcecatCatalogType); ok && (v == CatalogTypeOpen || v == CatalogTypeFull) {
		s.IcecatCatalogType = v
	}
	intVal(KeyMaxGalleryImages, &s.MaxGalleryImages, 0)

	if rules != nil {
		stored, err := rules.FindAll(ctx)
		if err != nil {
			return Settings{}, fmt.Errorf("load field rules: %w", err)
		}
		rs, err := NewRuleSet(stored)
		if err != nil {
			return Settings{}, err
		}
		s.Rules = rs
	}
	return s, nil
}

// SaveSettings validates and writes every key of the snapshot
func SaveSettings(ctx context.Context, store SettingsStore, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	values := map[string]string{
		KeyBarcodeLookupEnabled: formatBool(s.BarcodeLookupEnabled),
		KeyIcecatEnabled:        formatBool(s.IcecatEnabled),
		KeySourcePriority:       string(s.Priority),
		KeyNewBatchSize:         strconv.Itoa(s.NewBatchSize),
		KeyUpdateBatchSize:      strconv.Itoa(s.UpdateBatchSize),
		KeyFreshnessDays:        strconv.Itoa(s.FreshnessDays),
		KeySyncDescription:      formatBool(s.SyncDescription),
		KeySyncImages:           formatBool(s.SyncImages),
		KeySyncSpecifications:   formatBool(s.SyncSpecifications),
		KeySyncAttributes:       formatBool(s.SyncAttributes),
		KeyAutoSyncEnabled:      formatBool(s.AutoSyncEnabled),
		KeyIcecatLanguage:       s.IcecatLanguage,
		KeyIcecatCatalogType:    s.IcecatCatalogType,
		KeyMaxGalleryImages:     strconv.Itoa(s.MaxGalleryImages),
	}
	for key, value := range values {
		if err := store.Set(ctx, SettingsPrefix+key, value); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}
	return nil
}

// parseBool accepts the "True"/"False" spelling used by older stores as well as Go's
func parseBool(v string) (bool, error) {
	return strconv.ParseBool(strings.ToLower(v))
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
