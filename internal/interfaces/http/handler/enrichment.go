package handler

import (
	"context"
	"errors"
	"net/http"

	appenrichment "github.com/enrichment/backend/internal/application/enrichment"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/infrastructure/scheduler"
	"github.com/enrichment/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductEnricher runs enrichment on demand
type ProductEnricher interface {
	EnrichProduct(ctx context.Context, id uuid.UUID, barcode string) (*appenrichment.EnrichResult, error)
	RunManual(ctx context.Context, req appenrichment.ManualRequest) (*appenrichment.RunSummary, error)
}

// RunTrigger starts a scheduled job out of schedule
type RunTrigger interface {
	Trigger(ctx context.Context, kind enrichment.SyncType) (*appenrichment.RunSummary, error)
}

// SyncLogReader reads the run history
type SyncLogReader interface {
	List(ctx context.Context, filter enrichment.SyncLogFilter) ([]enrichment.SyncLogRun, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*enrichment.SyncLogRun, error)
}

// EnrichmentHandler handles enrichment runs and their history
type EnrichmentHandler struct {
	BaseHandler
	enricher ProductEnricher
	trigger  RunTrigger
	logs     SyncLogReader
}

// NewEnrichmentHandler creates a new EnrichmentHandler
func NewEnrichmentHandler(enricher ProductEnricher, trigger RunTrigger, logs SyncLogReader) *EnrichmentHandler {
	return &EnrichmentHandler{
		enricher: enricher,
		trigger:  trigger,
		logs:     logs,
	}
}

// EnrichProduct godoc
// @Summary      Enrich one product
// @Description  Fetch data for one product from the configured sources and commit it. A product without source data answers 200 with success=false.
// @Tags         enrichment
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body EnrichProductRequest false "Barcode override"
// @Success      200 {object} dto.Response{data=appenrichment.EnrichResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/enrich [post]
func (h *EnrichmentHandler) EnrichProduct(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req EnrichProductRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	result, err := h.enricher.EnrichProduct(c.Request.Context(), id, req.Barcode)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// Preconditions that stop before any source is asked are client errors
	switch result.Code {
	case appenrichment.CodeNoBarcode, appenrichment.CodeNoSources:
		h.ErrorWithCode(c, dto.NormalizeErrorCode(result.Code), result.Message)
		return
	}
	h.Success(c, result)
}

// RunManual godoc
// @Summary      Run a manual bulk enrichment
// @Description  Enrich the selected products or a status domain sequentially and record a sync log
// @Tags         enrichment
// @Accept       json
// @Produce      json
// @Param        request body ManualRunRequest true "Manual run request"
// @Success      200 {object} dto.Response{data=appenrichment.RunSummary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/runs/manual [post]
func (h *EnrichmentHandler) RunManual(c *gin.Context) {
	var req ManualRunRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid product ID: "+raw)
			return
		}
		ids = append(ids, id)
	}

	summary, err := h.enricher.RunManual(c.Request.Context(), appenrichment.ManualRequest{
		Domain:         appenrichment.ManualDomain(req.Domain),
		ProductIDs:     ids,
		BatchSize:      req.BatchSize,
		ForceUpdate:    req.ForceUpdate,
		SourceOverride: enrichment.SourceOverride(req.SourceOverride),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// TriggerRun godoc
// @Summary      Trigger a scheduled job
// @Description  Run the new or update job now, bounded by the job timeout
// @Tags         enrichment
// @Accept       json
// @Produce      json
// @Param        kind path string true "Job kind" Enums(new, update)
// @Success      200 {object} dto.Response{data=appenrichment.RunSummary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/runs/{kind} [post]
func (h *EnrichmentHandler) TriggerRun(c *gin.Context) {
	kind, err := enrichment.ParseSyncType(c.Param("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	summary, err := h.trigger.Trigger(c.Request.Context(), kind)
	switch {
	case errors.Is(err, scheduler.ErrAutoSyncDisabled):
		h.Error(c, http.StatusConflict, dto.ErrCodeAutoSyncDisabled, "Automatic sync is disabled in the enrichment settings")
		return
	case errors.Is(err, scheduler.ErrRunInProgress):
		h.Error(c, http.StatusConflict, dto.ErrCodeRunInProgress, "A run of this kind is already in progress")
		return
	case errors.Is(err, scheduler.ErrUnknownJob):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidSyncType, "Only new and update runs can be triggered")
		return
	case err != nil:
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// ListSyncLogs godoc
// @Summary      List sync logs
// @Description  List enrichment runs newest first
// @Tags         enrichment
// @Accept       json
// @Produce      json
// @Param        sync_type query string false "Sync type" Enums(manual, new, update)
// @Param        status query string false "Run status" Enums(running, completed, failed)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]SyncLogResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/logs [get]
func (h *EnrichmentHandler) ListSyncLogs(c *gin.Context) {
	var req SyncLogListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	runs, total, err := h.logs.List(c.Request.Context(), enrichment.SyncLogFilter{
		SyncType: enrichment.SyncType(req.SyncType),
		Status:   enrichment.RunStatus(req.Status),
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  "start_time",
		OrderDir: "desc",
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]SyncLogResponse, len(runs))
	for i := range runs {
		items[i] = toSyncLogResponse(&runs[i])
	}
	h.SuccessWithMeta(c, items, total, req.Page, req.PageSize)
}

// GetSyncLog godoc
// @Summary      Get sync log by ID
// @Description  Retrieve one enrichment run with its counters and duration
// @Tags         enrichment
// @Accept       json
// @Produce      json
// @Param        id path string true "Sync log ID" format(uuid)
// @Success      200 {object} dto.Response{data=SyncLogResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/logs/{id} [get]
func (h *EnrichmentHandler) GetSyncLog(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	run, err := h.logs.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toSyncLogResponse(run))
}
