package handler

import (
	"runtime"
	"sort"
	"time"

	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/gin-gonic/gin"
)

// SchedulerStatus reports the state of the enrichment scheduler
type SchedulerStatus interface {
	IsRunning() bool
	NextRuns() map[enrichment.SyncType]time.Time
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
	scheduler SchedulerStatus
}

// NewSystemHandler creates a new SystemHandler. scheduler may be nil.
func NewSystemHandler(version string, scheduler SchedulerStatus) *SystemHandler {
	if version == "" {
		version = "dev"
	}
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
		scheduler: scheduler,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string           `json:"name"`
	Version   string           `json:"version"`
	GoVersion string           `json:"go_version"`
	Uptime    string           `json:"uptime"`
	Scheduler *SchedulerReport `json:"scheduler,omitempty"`
}

// SchedulerReport lists the next run of each scheduled job
type SchedulerReport struct {
	Running  bool           `json:"running"`
	NextRuns []ScheduledRun `json:"next_runs"`
}

// ScheduledRun is the next activation of one job
type ScheduledRun struct {
	SyncType string `json:"sync_type"`
	Next     string `json:"next"`
}

// GetSystemInfo godoc
// @Summary      Get system information
// @Description  Return the service version, uptime and scheduler state
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "Product Enrichment API",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.scheduler != nil {
		info.Scheduler = schedulerReport(h.scheduler)
	}
	h.Success(c, info)
}

func schedulerReport(s SchedulerStatus) *SchedulerReport {
	report := &SchedulerReport{Running: s.IsRunning(), NextRuns: []ScheduledRun{}}
	for kind, next := range s.NextRuns() {
		report.NextRuns = append(report.NextRuns, ScheduledRun{
			SyncType: string(kind),
			Next:     next.Format(time.RFC3339),
		})
	}
	sort.Slice(report.NextRuns, func(i, j int) bool {
		return report.NextRuns[i].SyncType < report.NextRuns[j].SyncType
	})
	return report
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping godoc
// @Summary      Ping
// @Description  Liveness check
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=PingResponse}
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
