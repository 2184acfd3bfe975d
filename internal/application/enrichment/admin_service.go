package enrichment

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
)

// SettingsService reads and writes the runtime enrichment settings
type SettingsService struct {
	store enrichment.SettingsStore
	rules enrichment.FieldRuleSource
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(store enrichment.SettingsStore, rules enrichment.FieldRuleSource) *SettingsService {
	return &SettingsService{store: store, rules: rules}
}

// Load takes one settings snapshot including the field rules
func (s *SettingsService) Load(ctx context.Context) (enrichment.Settings, error) {
	return enrichment.LoadSettings(ctx, s.store, s.rules)
}

// Update validates and stores the settings, returning the stored snapshot
func (s *SettingsService) Update(ctx context.Context, settings enrichment.Settings) (enrichment.Settings, error) {
	if err := enrichment.SaveSettings(ctx, s.store, settings); err != nil {
		return enrichment.Settings{}, err
	}
	return s.Load(ctx)
}

// Ensure SettingsService implements SettingsProvider
var _ SettingsProvider = (*SettingsService)(nil)

// FieldRuleView is a field mapping rule as shown to operators
type FieldRuleView struct {
	Field          enrichment.Field      `json:"field"`
	AllowedSources []enrichment.SourceID `json:"allowed_sources"`
	AllowOverwrite bool                  `json:"allow_overwrite"`
	Sequence       int                   `json:"sequence"`
	Notes          string                `json:"notes"`
	// Builtin marks defaults that are in effect because no rule is stored
	Builtin bool `json:"builtin"`
}

// UpsertRuleInput creates or replaces the rule of a field
type UpsertRuleInput struct {
	Field          string
	AllowedSources []enrichment.SourceID
	AllowOverwrite bool
	Sequence       *int
	Notes          string
}

// FieldRuleService administers field mapping rules
type FieldRuleService struct {
	rules  enrichment.FieldMappingRuleRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewFieldRuleService creates a new FieldRuleService
func NewFieldRuleService(rules enrichment.FieldMappingRuleRepository, logger *zap.Logger) *FieldRuleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FieldRuleService{rules: rules, now: time.Now, logger: logger}
}

// List returns the stored rules, or the built-in defaults when none are stored
func (s *FieldRuleService) List(ctx context.Context) ([]FieldRuleView, error) {
	stored, err := s.rules.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	builtin := len(stored) == 0
	rs, err := enrichment.NewRuleSet(stored)
	if err != nil {
		return nil, err
	}
	rules := rs.Rules()
	views := make([]FieldRuleView, len(rules))
	for i, r := range rules {
		views[i] = toRuleView(r, builtin)
	}
	return views, nil
}

// Upsert creates the rule of a field or replaces the existing one
func (s *FieldRuleService) Upsert(ctx context.Context, in UpsertRuleInput) (*FieldRuleView, error) {
	candidate, err := enrichment.NewFieldMappingRule(in.Field, in.AllowedSources, in.AllowOverwrite)
	if err != nil {
		return nil, err
	}

	rule, err := s.rules.FindByField(ctx, candidate.Field)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		rule = candidate
		rule.CreatedAt = s.now()
	case err != nil:
		return nil, err
	default:
		rule.AllowedSources = candidate.AllowedSources
		rule.AllowOverwrite = candidate.AllowOverwrite
	}
	if in.Sequence != nil {
		rule.Sequence = *in.Sequence
	}
	rule.Notes = strings.TrimSpace(in.Notes)
	rule.UpdatedAt = s.now()

	if err := s.rules.Save(ctx, rule); err != nil {
		return nil, err
	}
	s.logger.Info("Field mapping rule saved",
		zap.String("field", string(rule.Field)),
		zap.String("sources", enrichment.JoinSources(rule.AllowedSources)),
		zap.Bool("allow_overwrite", rule.AllowOverwrite),
	)
	view := toRuleView(*rule, false)
	return &view, nil
}

// Delete removes the stored rule of a field
func (s *FieldRuleService) Delete(ctx context.Context, field string) error {
	f, err := enrichment.ParseField(field)
	if err != nil {
		return err
	}
	return s.rules.DeleteByField(ctx, f)
}

func toRuleView(r enrichment.FieldMappingRule, builtin bool) FieldRuleView {
	sources := r.AllowedSources
	if sources == nil {
		sources = []enrichment.SourceID{}
	}
	return FieldRuleView{
		Field:          r.Field,
		AllowedSources: sources,
		AllowOverwrite: r.AllowOverwrite,
		Sequence:       r.Sequence,
		Notes:          r.Notes,
		Builtin:        builtin,
	}
}

// MaintenanceService runs catalog housekeeping tasks
type MaintenanceService struct {
	attributes catalog.AttributeRepository
	logger     *zap.Logger
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(attributes catalog.AttributeRepository, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{attributes: attributes, logger: logger}
}

// CleanupAttributes deletes every managed attribute with its values and product lines
func (s *MaintenanceService) CleanupAttributes(ctx context.Context) (catalog.AttributeCleanupResult, error) {
	result, err := s.attributes.DeleteManaged(ctx)
	if err != nil {
		return catalog.AttributeCleanupResult{}, err
	}
	s.logger.Info("Managed attributes removed",
		zap.Int64("attributes", result.Attributes),
		zap.Int64("values", result.Values),
		zap.Int64("lines", result.Lines),
	)
	return result, nil
}
