package scheduler

import "errors"

var (
	// ErrInvalidSchedule is returned when a cron spec cannot be parsed
	ErrInvalidSchedule = errors.New("invalid cron schedule")

	// ErrAutoSyncDisabled is returned when a scheduled run is skipped by the auto sync setting
	ErrAutoSyncDisabled = errors.New("automatic enrichment sync is disabled")

	// ErrUnknownJob is returned when triggering a kind that has no job
	ErrUnknownJob = errors.New("no job registered for sync type")

	// ErrRunInProgress is returned when a run of the same kind is still going in this process
	ErrRunInProgress = errors.New("enrichment run already in progress")
)
