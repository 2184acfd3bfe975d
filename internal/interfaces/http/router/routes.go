package router

import (
	"net/http"

	"github.com/enrichment/backend/internal/interfaces/http/dto"
	"github.com/enrichment/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers of the enrichment API
type Handlers struct {
	System         *handler.SystemHandler
	Enrichment     *handler.EnrichmentHandler
	Settings       *handler.SettingsHandler
	Categories     *handler.CategoryMappingHandler
	Specifications *handler.SpecificationHandler
	Maintenance    *handler.MaintenanceHandler
}

// RegisterAPI adds the system, products and enrichment groups to r.
// runGuard runs in front of every route that starts enrichment.
func RegisterAPI(r *Router, h Handlers, runGuard ...gin.HandlerFunc) {
	system := NewDomainGroup("system", "/system")
	system.GET("/ping", h.System.Ping).Describe("Liveness check")
	system.GET("/info", h.System.GetSystemInfo).Describe("Version, uptime and scheduler state")
	system.GET("/routes", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(r.Routes()))
	}).Describe("Registered API routes")

	products := NewDomainGroup("products", "/products")
	products.POST("/:id/enrich", guarded(runGuard, h.Enrichment.EnrichProduct)...).
		Describe("Enrich one product from the configured sources")
	products.GET("/:id/specifications", h.Specifications.Get).
		Describe("Stored specification lines with their grouped rendering")
	products.POST("/:id/specifications/remove", h.Specifications.Remove).
		Describe("Remove specification lines by index")

	enrichment := NewDomainGroup("enrichment", "/enrichment")

	runs := enrichment.Group("runs", "/runs").Use(runGuard...)
	runs.POST("/manual", h.Enrichment.RunManual).Describe("Manual bulk enrichment")
	runs.POST("/:kind", h.Enrichment.TriggerRun).Describe("Start the new or update job now")

	logs := enrichment.Group("logs", "/logs")
	logs.GET("", h.Enrichment.ListSyncLogs).Describe("Sync log history, newest first")
	logs.GET("/:id", h.Enrichment.GetSyncLog).Describe("One sync log")

	settings := enrichment.Group("settings", "/settings")
	settings.GET("", h.Settings.GetSettings).Describe("Runtime enrichment settings")
	settings.PUT("", h.Settings.UpdateSettings).Describe("Change runtime enrichment settings")

	rules := enrichment.Group("field-rules", "/field-rules")
	rules.GET("", h.Settings.ListFieldRules).Describe("Field mapping rules")
	rules.PUT("/:field", h.Settings.UpsertFieldRule).Describe("Create or replace a field mapping rule")
	rules.DELETE("/:field", h.Settings.DeleteFieldRule).Describe("Delete a field mapping rule")

	mappings := enrichment.Group("category-mappings", "/category-mappings")
	mappings.GET("", h.Categories.List).Describe("External category mappings")
	mappings.PUT("/:id", h.Categories.Update).Describe("Change the target categories of a mapping")
	mappings.POST("/:id/apply", h.Categories.Apply).Describe("Apply a mapping to its products")

	maintenance := enrichment.Group("maintenance", "/maintenance")
	maintenance.POST("/cleanup-attributes", h.Maintenance.CleanupAttributes).
		Describe("Delete source-managed attributes")

	r.Register(system, products, enrichment)
}

func guarded(guard []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(append([]gin.HandlerFunc{}, guard...), h)
}
