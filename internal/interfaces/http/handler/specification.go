package handler

import (
	"context"
	"net/http"

	appenrichment "github.com/enrichment/backend/internal/application/enrichment"
	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SpecificationManager reads, prunes and renders stored specifications
type SpecificationManager interface {
	Lines(ctx context.Context, productID uuid.UUID) ([]appenrichment.SpecLine, error)
	Remove(ctx context.Context, productID uuid.UUID, indexes []int) ([]appenrichment.SpecLine, error)
	RenderGrouped(ctx context.Context, productID uuid.UUID) (string, error)
}

// AttributeMaintainer runs catalog attribute housekeeping
type AttributeMaintainer interface {
	CleanupAttributes(ctx context.Context) (catalog.AttributeCleanupResult, error)
}

// SpecificationHandler handles product specification endpoints
type SpecificationHandler struct {
	BaseHandler
	specs SpecificationManager
}

// NewSpecificationHandler creates a new SpecificationHandler
func NewSpecificationHandler(specs SpecificationManager) *SpecificationHandler {
	return &SpecificationHandler{specs: specs}
}

// Get godoc
// @Summary      Get product specifications
// @Description  Return the stored specification lines and their grouped HTML rendering. With format=html only the tables are sent.
// @Tags         specifications
// @Accept       json
// @Produce      json,html
// @Param        id path string true "Product ID" format(uuid)
// @Param        format query string false "Response format" Enums(json, html)
// @Success      200 {object} dto.Response{data=SpecificationsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/specifications [get]
func (h *SpecificationHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	html, err := h.specs.RenderGrouped(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}

	lines, err := h.specs.Lines(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SpecificationsResponse{Lines: lines, HTML: html})
}

// Remove godoc
// @Summary      Remove specification lines
// @Description  Delete the selected specification lines by index and return what remains
// @Tags         specifications
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body RemoveSpecificationsRequest true "Line indexes"
// @Success      200 {object} dto.Response{data=[]appenrichment.SpecLine}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/specifications/remove [post]
func (h *SpecificationHandler) Remove(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req RemoveSpecificationsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := h.specs.Remove(c.Request.Context(), id, req.Indexes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}

// MaintenanceHandler handles catalog housekeeping endpoints
type MaintenanceHandler struct {
	BaseHandler
	maintainer AttributeMaintainer
}

// NewMaintenanceHandler creates a new MaintenanceHandler
func NewMaintenanceHandler(maintainer AttributeMaintainer) *MaintenanceHandler {
	return &MaintenanceHandler{maintainer: maintainer}
}

// CleanupAttributes godoc
// @Summary      Clean up managed attributes
// @Description  Delete every source-managed attribute with its values and product lines
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=catalog.AttributeCleanupResult}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/maintenance/cleanup-attributes [post]
func (h *MaintenanceHandler) CleanupAttributes(c *gin.Context) {
	result, err := h.maintainer.CleanupAttributes(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
