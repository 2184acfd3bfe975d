package handler

import (
	"context"
	"time"

	appenrichment "github.com/enrichment/backend/internal/application/enrichment"
	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductEnricher is a mock implementation of ProductEnricher
type MockProductEnricher struct {
	mock.Mock
}

func (m *MockProductEnricher) EnrichProduct(ctx context.Context, id uuid.UUID, barcode string) (*appenrichment.EnrichResult, error) {
	args := m.Called(ctx, id, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appenrichment.EnrichResult), args.Error(1)
}

func (m *MockProductEnricher) RunManual(ctx context.Context, req appenrichment.ManualRequest) (*appenrichment.RunSummary, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appenrichment.RunSummary), args.Error(1)
}

// MockRunTrigger is a mock implementation of RunTrigger
type MockRunTrigger struct {
	mock.Mock
}

func (m *MockRunTrigger) Trigger(ctx context.Context, kind enrichment.SyncType) (*appenrichment.RunSummary, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appenrichment.RunSummary), args.Error(1)
}

// MockSyncLogReader is a mock implementation of SyncLogReader
type MockSyncLogReader struct {
	mock.Mock
}

func (m *MockSyncLogReader) List(ctx context.Context, filter enrichment.SyncLogFilter) ([]enrichment.SyncLogRun, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]enrichment.SyncLogRun), args.Get(1).(int64), args.Error(2)
}

func (m *MockSyncLogReader) FindByID(ctx context.Context, id uuid.UUID) (*enrichment.SyncLogRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrichment.SyncLogRun), args.Error(1)
}

// MockSettingsStore is a mock implementation of SettingsStore
type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) Load(ctx context.Context) (enrichment.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(enrichment.Settings), args.Error(1)
}

func (m *MockSettingsStore) Update(ctx context.Context, settings enrichment.Settings) (enrichment.Settings, error) {
	args := m.Called(ctx, settings)
	return args.Get(0).(enrichment.Settings), args.Error(1)
}

// MockFieldRuleAdmin is a mock implementation of FieldRuleAdmin
type MockFieldRuleAdmin struct {
	mock.Mock
}

func (m *MockFieldRuleAdmin) List(ctx context.Context) ([]appenrichment.FieldRuleView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appenrichment.FieldRuleView), args.Error(1)
}

func (m *MockFieldRuleAdmin) Upsert(ctx context.Context, in appenrichment.UpsertRuleInput) (*appenrichment.FieldRuleView, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appenrichment.FieldRuleView), args.Error(1)
}

func (m *MockFieldRuleAdmin) Delete(ctx context.Context, field string) error {
	return m.Called(ctx, field).Error(0)
}

// MockCategoryMappingAdmin is a mock implementation of CategoryMappingAdmin
type MockCategoryMappingAdmin struct {
	mock.Mock
}

func (m *MockCategoryMappingAdmin) List(ctx context.Context) ([]appenrichment.MappingView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appenrichment.MappingView), args.Error(1)
}

func (m *MockCategoryMappingAdmin) Update(ctx context.Context, id uuid.UUID, in appenrichment.UpdateMappingInput) (*appenrichment.MappingView, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appenrichment.MappingView), args.Error(1)
}

func (m *MockCategoryMappingAdmin) ApplyToProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockSpecificationManager is a mock implementation of SpecificationManager
type MockSpecificationManager struct {
	mock.Mock
}

func (m *MockSpecificationManager) Lines(ctx context.Context, productID uuid.UUID) ([]appenrichment.SpecLine, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appenrichment.SpecLine), args.Error(1)
}

func (m *MockSpecificationManager) Remove(ctx context.Context, productID uuid.UUID, indexes []int) ([]appenrichment.SpecLine, error) {
	args := m.Called(ctx, productID, indexes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appenrichment.SpecLine), args.Error(1)
}

func (m *MockSpecificationManager) RenderGrouped(ctx context.Context, productID uuid.UUID) (string, error) {
	args := m.Called(ctx, productID)
	return args.String(0), args.Error(1)
}

// MockAttributeMaintainer is a mock implementation of AttributeMaintainer
type MockAttributeMaintainer struct {
	mock.Mock
}

func (m *MockAttributeMaintainer) CleanupAttributes(ctx context.Context) (catalog.AttributeCleanupResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(catalog.AttributeCleanupResult), args.Error(1)
}

func sampleRun(kind enrichment.SyncType, start time.Time) enrichment.SyncLogRun {
	end := start.Add(90 * time.Second)
	return enrichment.SyncLogRun{
		ID:          uuid.New(),
		SyncType:    kind,
		StartTime:   start,
		EndTime:     &end,
		Total:       3,
		SyncedCount: 2,
		ErrorCount:  1,
		Status:      enrichment.RunStatusCompleted,
		SourcesUsed: "icecat",
	}
}
