package enrichment

import (
	"time"

	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SyncType is the kind of batch run
type SyncType string

const (
	SyncTypeManual SyncType = "manual"
	SyncTypeNew    SyncType = "new"
	SyncTypeUpdate SyncType = "update"
)

// IsValid checks if the sync type is valid
func (t SyncType) IsValid() bool {
	return t == SyncTypeManual || t == SyncTypeNew || t == SyncTypeUpdate
}

// Label returns the display label of the sync type
func (t SyncType) Label() string {
	switch t {
	case SyncTypeManual:
		return "Manual Sync"
	case SyncTypeNew:
		return "New Products"
	case SyncTypeUpdate:
		return "Update Existing"
	}
	return string(t)
}

// ParseSyncType converts a string to a sync type
func ParseSyncType(s string) (SyncType, error) {
	t := SyncType(s)
	if !t.IsValid() {
		return "", shared.NewDomainError("INVALID_SYNC_TYPE", "Unknown sync type: "+s)
	}
	return t, nil
}

// RunStatus is the lifecycle state of a sync log row
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsValid checks if the status is valid
func (s RunStatus) IsValid() bool {
	return s == RunStatusRunning || s == RunStatusCompleted || s == RunStatusFailed
}

// Outcome classifies the result of one entry within a run
type Outcome string

const (
	OutcomeSynced  Outcome = "synced"
	OutcomeNoData  Outcome = "no_data"
	OutcomeError   Outcome = "error"
	OutcomeSkipped Outcome = "skipped"
)

// SyncLogRun records one batch execution and its running counters
type SyncLogRun struct {
	ID           uuid.UUID
	SyncType     SyncType
	StartTime    time.Time
	EndTime      *time.Time
	Total        int
	SyncedCount  int
	ErrorCount   int
	NoDataCount  int
	Status       RunStatus
	ErrorMessage string
	SourcesUsed  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSyncLogRun opens a running log row
func NewSyncLogRun(syncType SyncType, now time.Time) (*SyncLogRun, error) {
	if !syncType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SYNC_TYPE", "Unknown sync type: "+string(syncType))
	}
	return &SyncLogRun{
		ID:        uuid.New(),
		SyncType:  syncType,
		StartTime: now,
		Status:    RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Record counts one processed entry. Anything other than synced or no_data counts as an error.
func (l *SyncLogRun) Record(o Outcome) {
	switch o {
	case OutcomeSynced:
		l.SyncedCount++
	case OutcomeNoData:
		l.NoDataCount++
	default:
		l.ErrorCount++
	}
}

// Processed returns the number of entries counted so far
func (l *SyncLogRun) Processed() int {
	return l.SyncedCount + l.NoDataCount + l.ErrorCount
}

// IsRunning reports whether the run has not been closed
func (l *SyncLogRun) IsRunning() bool {
	return l.Status == RunStatusRunning
}

// Complete closes the run successfully
func (l *SyncLogRun) Complete(now time.Time) error {
	if !l.IsRunning() {
		return shared.NewDomainError("INVALID_STATE", "Sync run is already closed")
	}
	l.Status = RunStatusCompleted
	l.EndTime = &now
	l.UpdatedAt = now
	return nil
}

// Fail closes the run as failed with the error text
func (l *SyncLogRun) Fail(now time.Time, message string) {
	l.Status = RunStatusFailed
	l.ErrorMessage = message
	l.EndTime = &now
	l.UpdatedAt = now
}

// ForceClose closes an abandoned run as completed, keeping its counters
func (l *SyncLogRun) ForceClose(now time.Time) {
	l.Status = RunStatusCompleted
	if l.EndTime == nil {
		l.EndTime = &now
	}
	l.UpdatedAt = now
}

// Name returns the display name, e.g. "New Products - 2024-03-01 14:30"
func (l *SyncLogRun) Name() string {
	return l.SyncType.Label() + " - " + l.StartTime.Format("2006-01-02 15:04")
}

// Duration returns the elapsed run time, zero while the run is open
func (l *SyncLogRun) Duration() time.Duration {
	if l.EndTime == nil {
		return 0
	}
	return l.EndTime.Sub(l.StartTime)
}
