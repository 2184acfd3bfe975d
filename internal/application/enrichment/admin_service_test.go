package enrichment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
)

type mapSettingsStore map[string]string

func (s mapSettingsStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s[key]
	return v, ok, nil
}

func (s mapSettingsStore) Set(_ context.Context, key, value string) error {
	s[key] = value
	return nil
}

func (s mapSettingsStore) List(_ context.Context, prefix string) (map[string]string, error) {
	out := make(map[string]string)
	for k, v := range s {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

// memoryRules is an in-memory FieldMappingRuleRepository keyed by field
type memoryRules map[enrichment.Field]enrichment.FieldMappingRule

func (r memoryRules) FindAll(context.Context) ([]enrichment.FieldMappingRule, error) {
	out := make([]enrichment.FieldMappingRule, 0, len(r))
	for _, rule := range r {
		out = append(out, rule)
	}
	return out, nil
}

func (r memoryRules) FindByField(_ context.Context, f enrichment.Field) (*enrichment.FieldMappingRule, error) {
	rule, ok := r[f]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &rule, nil
}

func (r memoryRules) Save(_ context.Context, rule *enrichment.FieldMappingRule) error {
	if existing, ok := r[rule.Field]; ok && existing.ID != rule.ID {
		return shared.NewDomainError("DUPLICATE_FIELD_RULE", "duplicate")
	}
	r[rule.Field] = *rule
	return nil
}

func (r memoryRules) DeleteByField(_ context.Context, f enrichment.Field) error {
	if _, ok := r[f]; !ok {
		return shared.ErrNotFound
	}
	delete(r, f)
	return nil
}

func TestSettingsService(t *testing.T) {
	store := mapSettingsStore{}
	rules := memoryRules{}
	svc := NewSettingsService(store, rules)

	s, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, enrichment.DefaultSettings().Priority, s.Priority)

	s.IcecatLanguage = "nl"
	s.Priority = enrichment.PriorityIcecatFirst
	updated, err := svc.Update(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "nl", updated.IcecatLanguage)
	assert.Equal(t, "icecat_first", store[enrichment.SettingsPrefix+enrichment.KeySourcePriority])

	s.NewBatchSize = 0
	_, err = svc.Update(context.Background(), s)
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_SETTING", ""))
}

func TestFieldRuleService(t *testing.T) {
	rules := memoryRules{}
	svc := NewFieldRuleService(rules, nil)
	ctx := context.Background()

	views, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 4)
	assert.True(t, views[0].Builtin)
	assert.Equal(t, enrichment.FieldName, views[0].Field)

	seq := 5
	view, err := svc.Upsert(ctx, UpsertRuleInput{
		Field:          "name",
		AllowedSources: []enrichment.SourceID{enrichment.SourceIcecat},
		AllowOverwrite: true,
		Sequence:       &seq,
		Notes:          " trusted ",
	})
	require.NoError(t, err)
	assert.Equal(t, "trusted", view.Notes)
	assert.False(t, view.Builtin)
	firstID := rules[enrichment.FieldName].ID

	_, err = svc.Upsert(ctx, UpsertRuleInput{Field: "name", AllowedSources: enrichment.AllSources()})
	require.NoError(t, err)
	assert.Equal(t, firstID, rules[enrichment.FieldName].ID)
	assert.Equal(t, 5, rules[enrichment.FieldName].Sequence)
	assert.False(t, rules[enrichment.FieldName].AllowOverwrite)

	views, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].Builtin)

	_, err = svc.Upsert(ctx, UpsertRuleInput{Field: "list_price"})
	assert.ErrorIs(t, err, shared.NewDomainError("UNKNOWN_FIELD", ""))
	_, err = svc.Upsert(ctx, UpsertRuleInput{Field: "name", AllowedSources: []enrichment.SourceID{"amazon"}})
	assert.ErrorIs(t, err, shared.NewDomainError("INVALID_SOURCE", ""))

	require.NoError(t, svc.Delete(ctx, "name"))
	assert.ErrorIs(t, svc.Delete(ctx, "name"), shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "bogus"), shared.NewDomainError("UNKNOWN_FIELD", ""))
}

// MockAttributeRepository is a mock implementation of AttributeRepository
type MockAttributeRepository struct {
	mock.Mock
}

func (m *MockAttributeRepository) DeleteManaged(ctx context.Context) (catalog.AttributeCleanupResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(catalog.AttributeCleanupResult), args.Error(1)
}

func TestMaintenanceService_CleanupAttributes(t *testing.T) {
	repo := new(MockAttributeRepository)
	want := catalog.AttributeCleanupResult{Attributes: 2, Values: 7, Lines: 3}
	repo.On("DeleteManaged", mock.Anything).Return(want, nil)

	got, err := NewMaintenanceService(repo, nil).CleanupAttributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}
