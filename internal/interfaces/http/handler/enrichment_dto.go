package handler

import (
	"time"

	appenrichment "github.com/enrichment/backend/internal/application/enrichment"
	"github.com/enrichment/backend/internal/domain/enrichment"
)

// EnrichProductRequest overrides the barcode used for a single enrichment
type EnrichProductRequest struct {
	Barcode string `json:"barcode" binding:"omitempty,max=64"`
}

// ManualRunRequest starts a manual bulk run
type ManualRunRequest struct {
	Domain         string   `json:"domain" binding:"required,oneof=selected all_not_synced all_with_errors all_outdated"`
	ProductIDs     []string `json:"product_ids" binding:"omitempty,dive,uuid"`
	BatchSize      int      `json:"batch_size" binding:"omitempty,min=1,max=1000"`
	ForceUpdate    bool     `json:"force_update"`
	SourceOverride string   `json:"source_override" binding:"omitempty,oneof=use_config barcodelookup_only icecat_only both"`
}

// SyncLogListRequest filters the sync log listing
type SyncLogListRequest struct {
	SyncType string `form:"sync_type" binding:"omitempty,oneof=manual new update"`
	Status   string `form:"status" binding:"omitempty,oneof=running completed failed"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SyncLogResponse is a sync log row with its display name
type SyncLogResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	SyncType        string  `json:"sync_type"`
	Status          string  `json:"status"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	Total           int     `json:"total"`
	SyncedCount     int     `json:"synced_count"`
	NoDataCount     int     `json:"no_data_count"`
	ErrorCount      int     `json:"error_count"`
	SourcesUsed     string  `json:"sources_used"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

func toSyncLogResponse(run *enrichment.SyncLogRun) SyncLogResponse {
	resp := SyncLogResponse{
		ID:              run.ID.String(),
		Name:            run.Name(),
		SyncType:        string(run.SyncType),
		Status:          string(run.Status),
		StartTime:       run.StartTime.Format(time.RFC3339),
		DurationSeconds: run.Duration().Seconds(),
		Total:           run.Total,
		SyncedCount:     run.SyncedCount,
		NoDataCount:     run.NoDataCount,
		ErrorCount:      run.ErrorCount,
		SourcesUsed:     run.SourcesUsed,
		ErrorMessage:    run.ErrorMessage,
	}
	if run.EndTime != nil {
		end := run.EndTime.Format(time.RFC3339)
		resp.EndTime = &end
	}
	return resp
}

// UpdateSettingsRequest changes runtime settings. Absent keys keep their stored value.
type UpdateSettingsRequest struct {
	BarcodeLookupEnabled *bool   `json:"barcodelookup_enabled"`
	IcecatEnabled        *bool   `json:"icecat_enabled"`
	SourcePriority       *string `json:"source_priority" binding:"omitempty,oneof=barcodelookup_first icecat_first barcodelookup_only icecat_only"`
	NewBatchSize         *int    `json:"new_product_batch_size" binding:"omitempty,min=1"`
	UpdateBatchSize      *int    `json:"update_batch_size" binding:"omitempty,min=1"`
	FreshnessDays        *int    `json:"freshness_days" binding:"omitempty,min=1"`
	SyncDescription      *bool   `json:"sync_description"`
	SyncImages           *bool   `json:"sync_images"`
	SyncSpecifications   *bool   `json:"sync_specifications"`
	SyncAttributes       *bool   `json:"sync_attributes"`
	AutoSyncEnabled      *bool   `json:"auto_sync_enabled"`
	IcecatLanguage       *string `json:"icecat_language" binding:"omitempty,min=2,max=10"`
	IcecatCatalogType    *string `json:"icecat_catalog_type" binding:"omitempty,oneof=open full"`
	MaxGalleryImages     *int    `json:"max_gallery_images" binding:"omitempty,min=0"`
}

// applyTo overlays the request on a settings snapshot
func (r UpdateSettingsRequest) applyTo(s enrichment.Settings) enrichment.Settings {
	setBool(&s.BarcodeLookupEnabled, r.BarcodeLookupEnabled)
	setBool(&s.IcecatEnabled, r.IcecatEnabled)
	if r.SourcePriority != nil {
		s.Priority = enrichment.PriorityMode(*r.SourcePriority)
	}
	setInt(&s.NewBatchSize, r.NewBatchSize)
	setInt(&s.UpdateBatchSize, r.UpdateBatchSize)
	setInt(&s.FreshnessDays, r.FreshnessDays)
	setBool(&s.SyncDescription, r.SyncDescription)
	setBool(&s.SyncImages, r.SyncImages)
	setBool(&s.SyncSpecifications, r.SyncSpecifications)
	setBool(&s.SyncAttributes, r.SyncAttributes)
	setBool(&s.AutoSyncEnabled, r.AutoSyncEnabled)
	if r.IcecatLanguage != nil {
		s.IcecatLanguage = *r.IcecatLanguage
	}
	if r.IcecatCatalogType != nil {
		s.IcecatCatalogType = *r.IcecatCatalogType
	}
	setInt(&s.MaxGalleryImages, r.MaxGalleryImages)
	return s
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// UpsertFieldRuleRequest creates or replaces the rule of a field
type UpsertFieldRuleRequest struct {
	AllowedSources []string `json:"allowed_sources" binding:"required,min=1,dive,oneof=barcodelookup icecat"`
	AllowOverwrite bool     `json:"allow_overwrite"`
	Sequence       *int     `json:"sequence" binding:"omitempty,min=0"`
	Notes          string   `json:"notes" binding:"max=500"`
}

func (r UpsertFieldRuleRequest) toInput(field string) appenrichment.UpsertRuleInput {
	sources := make([]enrichment.SourceID, len(r.AllowedSources))
	for i, s := range r.AllowedSources {
		sources[i] = enrichment.SourceID(s)
	}
	return appenrichment.UpsertRuleInput{
		Field:          field,
		AllowedSources: sources,
		AllowOverwrite: r.AllowOverwrite,
		Sequence:       r.Sequence,
		Notes:          r.Notes,
	}
}

// UpdateCategoryMappingRequest replaces the editable fields of a mapping
type UpdateCategoryMappingRequest struct {
	GoogleCategoryPath string  `json:"google_category_path" binding:"max=500"`
	PublicCategoryID   *string `json:"public_category_id" binding:"omitempty,uuid"`
	InternalCategoryID *string `json:"internal_category_id" binding:"omitempty,uuid"`
	AutoPublish        bool    `json:"auto_publish"`
}

// RemoveSpecificationsRequest selects spec lines by index
type RemoveSpecificationsRequest struct {
	Indexes []int `json:"indexes" binding:"required,min=1,dive,min=0"`
}

// SpecificationsResponse holds the stored lines and their grouped rendering
type SpecificationsResponse struct {
	Lines []appenrichment.SpecLine `json:"lines"`
	HTML  string                   `json:"html"`
}
