package handler

import (
	"context"

	appenrichment "github.com/enrichment/backend/internal/application/enrichment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CategoryMappingAdmin administers external category mappings
type CategoryMappingAdmin interface {
	List(ctx context.Context) ([]appenrichment.MappingView, error)
	Update(ctx context.Context, id uuid.UUID, in appenrichment.UpdateMappingInput) (*appenrichment.MappingView, error)
	ApplyToProducts(ctx context.Context, id uuid.UUID) (int64, error)
}

// CategoryMappingHandler handles category mapping endpoints
type CategoryMappingHandler struct {
	BaseHandler
	mappings CategoryMappingAdmin
}

// NewCategoryMappingHandler creates a new CategoryMappingHandler
func NewCategoryMappingHandler(mappings CategoryMappingAdmin) *CategoryMappingHandler {
	return &CategoryMappingHandler{mappings: mappings}
}

// List godoc
// @Summary      List category mappings
// @Description  List external category mappings with their product counts
// @Tags         category-mappings
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appenrichment.MappingView}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/category-mappings [get]
func (h *CategoryMappingHandler) List(c *gin.Context) {
	views, err := h.mappings.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, views)
}

// Update godoc
// @Summary      Update a category mapping
// @Description  Replace the target categories of a mapping
// @Tags         category-mappings
// @Accept       json
// @Produce      json
// @Param        id path string true "Mapping ID" format(uuid)
// @Param        request body UpdateCategoryMappingRequest true "Mapping update"
// @Success      200 {object} dto.Response{data=appenrichment.MappingView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/category-mappings/{id} [put]
func (h *CategoryMappingHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateCategoryMappingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.mappings.Update(c.Request.Context(), id, appenrichment.UpdateMappingInput{
		GoogleCategoryPath: req.GoogleCategoryPath,
		PublicCategoryID:   parseOptionalUUID(req.PublicCategoryID),
		InternalCategoryID: parseOptionalUUID(req.InternalCategoryID),
		AutoPublish:        req.AutoPublish,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Apply godoc
// @Summary      Apply a category mapping
// @Description  Assign the mapped categories to every product carrying the external category
// @Tags         category-mappings
// @Accept       json
// @Produce      json
// @Param        id path string true "Mapping ID" format(uuid)
// @Success      200 {object} dto.Response{data=CountData}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/category-mappings/{id}/apply [post]
func (h *CategoryMappingHandler) Apply(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}

	count, err := h.mappings.ApplyToProducts(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: count})
}

// parseOptionalUUID expects a value already validated by the binding
func parseOptionalUUID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}
