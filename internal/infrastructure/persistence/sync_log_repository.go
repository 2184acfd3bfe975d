package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/enrichment/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSyncLogRepository implements enrichment.SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Create inserts a new row
func (r *GormSyncLogRepository) Create(ctx context.Context, run *enrichment.SyncLogRun) error {
	return r.db.WithContext(ctx).Create(models.SyncLogModelFromDomain(run)).Error
}

// Save updates counters and status of an existing row
func (r *GormSyncLogRepository) Save(ctx context.Context, run *enrichment.SyncLogRun) error {
	result := r.db.WithContext(ctx).Model(&models.SyncLogModel{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"end_time":       run.EndTime,
			"total_products": run.Total,
			"synced_count":   run.SyncedCount,
			"error_count":    run.ErrorCount,
			"no_data_count":  run.NoDataCount,
			"status":         run.Status,
			"error_message":  run.ErrorMessage,
			"sources_used":   run.SourcesUsed,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a row by its ID
func (r *GormSyncLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*enrichment.SyncLogRun, error) {
	var model models.SyncLogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRunning finds rows of a sync type still marked running, oldest first
func (r *GormSyncLogRepository) FindRunning(ctx context.Context, syncType enrichment.SyncType) ([]enrichment.SyncLogRun, error) {
	var rows []models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("sync_type = ? AND status = ?", syncType, enrichment.RunStatusRunning).
		Order("start_time ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSyncLogRuns(rows), nil
}

// List returns a page of rows, newest first unless the filter says otherwise, with the total count
func (r *GormSyncLogRepository) List(ctx context.Context, filter enrichment.SyncLogFilter) ([]enrichment.SyncLogRun, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SyncLogModel{})
	if filter.SyncType != "" {
		query = query.Where("sync_type = ?", filter.SyncType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}
	if f.PageSize <= 0 {
		f.PageSize = shared.DefaultFilter().PageSize
	}
	var rows []models.SyncLogModel
	orderBy := ValidateSortField(filter.OrderBy, SyncLogSortFields, "start_time")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if err := query.Order(orderBy + " " + orderDir).
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toSyncLogRuns(rows), total, nil
}

func toSyncLogRuns(rows []models.SyncLogModel) []enrichment.SyncLogRun {
	runs := make([]enrichment.SyncLogRun, len(rows))
	for i := range rows {
		runs[i] = *rows[i].ToDomain()
	}
	return runs
}

// Ensure GormSyncLogRepository implements SyncLogRepository
var _ enrichment.SyncLogRepository = (*GormSyncLogRepository)(nil)
