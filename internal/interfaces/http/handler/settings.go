package handler

import (
	"context"

	appenrichment "github.com/enrichment/backend/internal/application/enrichment"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/gin-gonic/gin"
)

// SettingsStore reads and writes the runtime settings
type SettingsStore interface {
	Load(ctx context.Context) (enrichment.Settings, error)
	Update(ctx context.Context, settings enrichment.Settings) (enrichment.Settings, error)
}

// FieldRuleAdmin administers field mapping rules
type FieldRuleAdmin interface {
	List(ctx context.Context) ([]appenrichment.FieldRuleView, error)
	Upsert(ctx context.Context, in appenrichment.UpsertRuleInput) (*appenrichment.FieldRuleView, error)
	Delete(ctx context.Context, field string) error
}

// SettingsHandler handles enrichment settings and field mapping rules
type SettingsHandler struct {
	BaseHandler
	settings SettingsStore
	rules    FieldRuleAdmin
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings SettingsStore, rules FieldRuleAdmin) *SettingsHandler {
	return &SettingsHandler{settings: settings, rules: rules}
}

// GetSettings godoc
// @Summary      Get enrichment settings
// @Description  Return the runtime enrichment settings snapshot
// @Tags         enrichment-settings
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=enrichment.Settings}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.Load(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settings)
}

// UpdateSettings godoc
// @Summary      Update enrichment settings
// @Description  Change the settings present in the body; absent keys keep their stored value
// @Tags         enrichment-settings
// @Accept       json
// @Produce      json
// @Param        request body UpdateSettingsRequest true "Settings to change"
// @Success      200 {object} dto.Response{data=enrichment.Settings}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	current, err := h.settings.Load(ctx)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	updated, err := h.settings.Update(ctx, req.applyTo(current))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, updated)
}

// ListFieldRules godoc
// @Summary      List field mapping rules
// @Description  List the effective mapping rule of every field
// @Tags         enrichment-settings
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=[]appenrichment.FieldRuleView}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/field-rules [get]
func (h *SettingsHandler) ListFieldRules(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rules)
}

// UpsertFieldRule godoc
// @Summary      Create or replace a field mapping rule
// @Description  Store the mapping rule of one field
// @Tags         enrichment-settings
// @Accept       json
// @Produce      json
// @Param        field path string true "Field name"
// @Param        request body UpsertFieldRuleRequest true "Field rule"
// @Success      200 {object} dto.Response{data=appenrichment.FieldRuleView}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/field-rules/{field} [put]
func (h *SettingsHandler) UpsertFieldRule(c *gin.Context) {
	var req UpsertFieldRuleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rule, err := h.rules.Upsert(c.Request.Context(), req.toInput(c.Param("field")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// DeleteFieldRule godoc
// @Summary      Delete a field mapping rule
// @Description  Remove the stored rule; the field falls back to its default rule
// @Tags         enrichment-settings
// @Accept       json
// @Produce      json
// @Param        field path string true "Field name"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /enrichment/field-rules/{field} [delete]
func (h *SettingsHandler) DeleteFieldRule(c *gin.Context) {
	if err := h.rules.Delete(c.Request.Context(), c.Param("field")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
