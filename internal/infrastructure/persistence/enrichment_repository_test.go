package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/enrichment/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCategoryRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCategoryRepository(db)
	ctx := context.Background()

	root, err := catalog.NewCategory(catalog.CategoryKindPublic, "Electronics")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, root))
	child, err := catalog.NewChildCategory("Computers", root)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, child))

	t.Run("finds root by kind and name", func(t *testing.T) {
		found, err := repo.FindChild(ctx, catalog.CategoryKindPublic, nil, "Electronics")
		require.NoError(t, err)
		assert.Equal(t, root.ID, found.ID)
	})

	t.Run("finds child under parent", func(t *testing.T) {
		found, err := repo.FindChild(ctx, catalog.CategoryKindPublic, &root.ID, "Computers")
		require.NoError(t, err)
		assert.Equal(t, child.ID, found.ID)
		assert.Equal(t, "Electronics / Computers", found.CompleteName)
		assert.Equal(t, 1, found.Level)
	})

	t.Run("kinds are separate taxonomies", func(t *testing.T) {
		_, err := repo.FindChild(ctx, catalog.CategoryKindInternal, nil, "Electronics")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("root lookup does not match children", func(t *testing.T) {
		_, err := repo.FindChild(ctx, catalog.CategoryKindPublic, nil, "Computers")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find all orders by complete name", func(t *testing.T) {
		all, err := repo.FindAll(ctx, catalog.CategoryKindPublic)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Electronics", all[0].Name)
		assert.Equal(t, "Computers", all[1].Name)
	})
}

func TestGormAttributeRepository_DeleteManaged(t *testing.T) {
	db := newTestDB(t)
	products := NewGormProductRepository(db)
	repo := NewGormAttributeRepository(db)
	ctx := context.Background()

	p := newTestProduct(t, "Monitor", "123")
	require.NoError(t, products.Save(ctx, p))

	ws := enrichment.NewWriteSet(p)
	ws.ReplaceAttributes = true
	ws.Attributes = []enrichment.AttributeGroup{
		{Name: catalog.ManagedAttributeName("Display"), Values: []string{"Size: 27", "Panel: IPS"}},
		{Name: catalog.ManagedAttributeName("Power"), Values: []string{"Consumption: 20 W"}},
	}
	require.NoError(t, products.Commit(ctx, p.ID, ws))

	manual := models.AttributeModel{Name: "Colour"}
	manual.FromDomainBaseEntity(shared.NewBaseEntity())
	require.NoError(t, db.Create(&manual).Error)

	result, err := repo.DeleteManaged(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.AttributeCleanupResult{Attributes: 2, Values: 3, Lines: 2}, result)

	var remaining []models.AttributeModel
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Colour", remaining[0].Name)

	var lineValues int64
	require.NoError(t, db.Model(&models.ProductAttributeLineValueModel{}).Count(&lineValues).Error)
	assert.Zero(t, lineValues)

	t.Run("second cleanup reports nothing", func(t *testing.T) {
		result, err := repo.DeleteManaged(ctx)
		require.NoError(t, err)
		assert.Equal(t, catalog.AttributeCleanupResult{}, result)
	})
}

func TestGormFieldMappingRuleRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormFieldMappingRuleRepository(db)
	ctx := context.Background()

	rule, err := enrichment.NewFieldMappingRule("name", []enrichment.SourceID{enrichment.SourceIcecat, enrichment.SourceBarcodeLookup}, true)
	require.NoError(t, err)
	rule.Notes = "Icecat titles are cleaner"
	require.NoError(t, repo.Save(ctx, rule))

	t.Run("round trips allowed sources in order", func(t *testing.T) {
		found, err := repo.FindByField(ctx, enrichment.FieldName)
		require.NoError(t, err)
		assert.Equal(t, rule.ID, found.ID)
		assert.Equal(t, []enrichment.SourceID{enrichment.SourceIcecat, enrichment.SourceBarcodeLookup}, found.AllowedSources)
		assert.True(t, found.AllowOverwrite)
		assert.Equal(t, "Icecat titles are cleaner", found.Notes)
	})

	t.Run("updates the same rule", func(t *testing.T) {
		rule.AllowOverwrite = false
		require.NoError(t, repo.Save(ctx, rule))
		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.False(t, all[0].AllowOverwrite)
	})

	t.Run("rejects a second rule for the same field", func(t *testing.T) {
		dup, err := enrichment.NewFieldMappingRule("name", nil, false)
		require.NoError(t, err)
		err = repo.Save(ctx, dup)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DUPLICATE_FIELD_RULE", domainErr.Code)
	})

	t.Run("delete by field", func(t *testing.T) {
		require.NoError(t, repo.DeleteByField(ctx, enrichment.FieldName))
		_, err := repo.FindByField(ctx, enrichment.FieldName)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteByField(ctx, enrichment.FieldName), shared.ErrNotFound)
	})
}

func TestGormSyncLogRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormSyncLogRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)

	newRun := func(syncType enrichment.SyncType, start time.Time) *enrichment.SyncLogRun {
		run, err := enrichment.NewSyncLogRun(syncType, start)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, run))
		return run
	}

	first := newRun(enrichment.SyncTypeNew, base)
	second := newRun(enrichment.SyncTypeNew, base.Add(time.Hour))
	update := newRun(enrichment.SyncTypeUpdate, base.Add(2*time.Hour))

	first.Total = 3
	first.Record(enrichment.OutcomeSynced)
	first.Record(enrichment.OutcomeNoData)
	first.Record(enrichment.OutcomeError)
	require.NoError(t, first.Complete(base.Add(10*time.Minute)))
	require.NoError(t, repo.Save(ctx, first))

	t.Run("save persists counters and status", func(t *testing.T) {
		found, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, found.Total)
		assert.Equal(t, 1, found.SyncedCount)
		assert.Equal(t, 1, found.NoDataCount)
		assert.Equal(t, 1, found.ErrorCount)
		assert.Equal(t, enrichment.RunStatusCompleted, found.Status)
		assert.Equal(t, 10*time.Minute, found.Duration())
	})

	t.Run("finds running rows per type", func(t *testing.T) {
		running, err := repo.FindRunning(ctx, enrichment.SyncTypeNew)
		require.NoError(t, err)
		require.Len(t, running, 1)
		assert.Equal(t, second.ID, running[0].ID)
	})

	t.Run("lists newest first with filters", func(t *testing.T) {
		runs, total, err := repo.List(ctx, enrichment.SyncLogFilter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, runs, 3)
		assert.Equal(t, update.ID, runs[0].ID)

		runs, total, err = repo.List(ctx, enrichment.SyncLogFilter{SyncType: enrichment.SyncTypeNew, Status: enrichment.RunStatusRunning})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, runs, 1)
		assert.Equal(t, second.ID, runs[0].ID)
	})

	t.Run("paginates and sorts by whitelisted field", func(t *testing.T) {
		runs, total, err := repo.List(ctx, enrichment.SyncLogFilter{Page: 2, PageSize: 2, OrderBy: "start_time", OrderDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, runs, 1)
		assert.Equal(t, update.ID, runs[0].ID)
	})

	t.Run("save of unknown row", func(t *testing.T) {
		ghost, err := enrichment.NewSyncLogRun(enrichment.SyncTypeManual, base)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Save(ctx, ghost), shared.ErrNotFound)
	})
}

func TestGormCategoryMappingRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCategoryMappingRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mapping, err := enrichment.NewCategoryMapping("Notebooks", now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, mapping))

	t.Run("duplicate external category is rejected", func(t *testing.T) {
		dup, err := enrichment.NewCategoryMapping("Notebooks", now)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("save updates targets", func(t *testing.T) {
		publicID := uuid.New()
		mapping.PublicCategoryID = &publicID
		mapping.GoogleCategoryPath = "Electronics > Computers > Laptops"
		mapping.AutoPublish = true
		mapping.UpdatedAt = now.Add(time.Hour)
		require.NoError(t, repo.Save(ctx, mapping))

		found, err := repo.FindByExternal(ctx, "Notebooks")
		require.NoError(t, err)
		assert.Equal(t, &publicID, found.PublicCategoryID)
		assert.Nil(t, found.InternalCategoryID)
		assert.True(t, found.AutoPublish)
		assert.Equal(t, "Electronics > Computers > Laptops", found.GoogleCategoryPath)
	})

	t.Run("lookups", func(t *testing.T) {
		_, err := repo.FindByExternal(ctx, "Monitors")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		found, err := repo.FindByID(ctx, mapping.ID)
		require.NoError(t, err)
		assert.Equal(t, "Notebooks", found.ExternalCategory)

		other, err := enrichment.NewCategoryMapping("Monitors", now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, other))
		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Monitors", all[0].ExternalCategory)
	})
}

func TestGormSettingsStore(t *testing.T) {
	db := newTestDB(t)
	store := NewGormSettingsStore(db)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "product_enrichment.icecat_enabled")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "product_enrichment.icecat_enabled", "False"))
	require.NoError(t, store.Set(ctx, "product_enrichment.icecat_enabled", "True"))
	require.NoError(t, store.Set(ctx, "other.key", "x"))

	value, found, err := store.Get(ctx, "product_enrichment.icecat_enabled")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "True", value)

	values, err := store.List(ctx, enrichment.SettingsPrefix)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"product_enrichment.icecat_enabled": "True"}, values)

	t.Run("settings snapshot round trips through the store", func(t *testing.T) {
		s := enrichment.DefaultSettings()
		s.BarcodeLookupEnabled = true
		s.Priority = enrichment.PriorityIcecatFirst
		s.MaxGalleryImages = 4
		require.NoError(t, enrichment.SaveSettings(ctx, store, s))

		loaded, err := enrichment.LoadSettings(ctx, store, NewGormFieldMappingRuleRepository(db))
		require.NoError(t, err)
		assert.True(t, loaded.BarcodeLookupEnabled)
		assert.Equal(t, enrichment.PriorityIcecatFirst, loaded.Priority)
		assert.Equal(t, 4, loaded.MaxGalleryImages)
	})
}
