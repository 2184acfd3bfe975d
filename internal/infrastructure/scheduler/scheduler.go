package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	appenrichment "github.com/enrichment/backend/internal/application/enrichment"
	"github.com/enrichment/backend/internal/domain/enrichment"
)

// BatchRunner executes one scheduled enrichment run
type BatchRunner interface {
	Run(ctx context.Context, kind enrichment.SyncType) (*appenrichment.RunSummary, error)
}

// SettingsProvider loads the runtime settings checked before every run
type SettingsProvider interface {
	Load(ctx context.Context) (enrichment.Settings, error)
}

// Config holds scheduler configuration
type Config struct {
	NewProductsCron string
	UpdateCron      string
	JobTimeout      time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		NewProductsCron: "@every 1h",
		UpdateCron:      "0 2 * * *",
		JobTimeout:      2 * time.Hour,
	}
}

// Scheduler triggers the new and update enrichment runs on their cron schedules.
// Overlapping runs of the same kind in this process are skipped; runs in other
// processes are not coordinated.
type Scheduler struct {
	config   Config
	runner   BatchRunner
	settings SettingsProvider
	logger   *zap.Logger

	cron    *cron.Cron
	entries map[enrichment.SyncType]cron.EntryID

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	active    map[enrichment.SyncType]bool
}

// New creates a scheduler and registers both jobs
func New(config Config, runner BatchRunner, settings SettingsProvider, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if config.NewProductsCron == "" {
		config.NewProductsCron = defaults.NewProductsCron
	}
	if config.UpdateCron == "" {
		config.UpdateCron = defaults.UpdateCron
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}

	cl := newCronLogger(logger)
	s := &Scheduler{
		config:   config,
		runner:   runner,
		settings: settings,
		logger:   logger,
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		entries:  make(map[enrichment.SyncType]cron.EntryID, 2),
		ctx:      context.Background(),
		active:   make(map[enrichment.SyncType]bool, 2),
	}

	specs := map[enrichment.SyncType]string{
		enrichment.SyncTypeNew:    config.NewProductsCron,
		enrichment.SyncTypeUpdate: config.UpdateCron,
	}
	for _, kind := range []enrichment.SyncType{enrichment.SyncTypeNew, enrichment.SyncTypeUpdate} {
		id, err := s.cron.AddFunc(specs[kind], func() { s.runScheduled(kind) })
		if err != nil {
			return nil, fmt.Errorf("%w %q for %s: %v", ErrInvalidSchedule, specs[kind], kind, err)
		}
		s.entries[kind] = id
	}
	return s, nil
}

// Start starts the cron loop. Runs inherit ctx for values, not for cancellation by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true
	s.cron.Start()

	s.logger.Info("Enrichment scheduler started",
		zap.String("new_products_cron", s.config.NewProductsCron),
		zap.String("update_cron", s.config.UpdateCron),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop stops scheduling and waits for running jobs until ctx expires.
// Running jobs are cancelled once ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		cancel()
		s.logger.Info("Enrichment scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		cancel()
		s.logger.Warn("Enrichment scheduler stop timed out, cancelling running jobs")
		return ctx.Err()
	}
}

// IsRunning reports whether the cron loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// NextRuns returns the next activation of each job; zero before Start
func (s *Scheduler) NextRuns() map[enrichment.SyncType]time.Time {
	out := make(map[enrichment.SyncType]time.Time, len(s.entries))
	for kind, id := range s.entries {
		out[kind] = s.cron.Entry(id).Next
	}
	return out
}

// Trigger runs one job now, honouring the auto sync setting and the job timeout.
// Scheduled and triggered runs share one in-process slot per kind.
func (s *Scheduler) Trigger(ctx context.Context, kind enrichment.SyncType) (*appenrichment.RunSummary, error) {
	if _, ok := s.entries[kind]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, kind)
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !settings.AutoSyncEnabled {
		return nil, ErrAutoSyncDisabled
	}

	if !s.acquire(kind) {
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, kind)
	}
	defer s.release(kind)

	ctx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()
	return s.runner.Run(ctx, kind)
}

func (s *Scheduler) acquire(kind enrichment.SyncType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[kind] {
		return false
	}
	s.active[kind] = true
	return true
}

func (s *Scheduler) release(kind enrichment.SyncType) {
	s.mu.Lock()
	delete(s.active, kind)
	s.mu.Unlock()
}

func (s *Scheduler) runScheduled(kind enrichment.SyncType) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	start := time.Now()
	summary, err := s.Trigger(ctx, kind)
	switch {
	case errors.Is(err, ErrAutoSyncDisabled):
		s.logger.Info("Automatic sync disabled, skipping run", zap.String("sync_type", string(kind)))
	case errors.Is(err, ErrRunInProgress):
		s.logger.Info("Previous run still in progress, skipping", zap.String("sync_type", string(kind)))
	case err != nil:
		s.logger.Error("Scheduled enrichment run failed",
			zap.String("sync_type", string(kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
	default:
		s.logger.Info("Scheduled enrichment run finished",
			zap.String("sync_type", string(kind)),
			zap.Int("synced", summary.Synced),
			zap.Int("errors", summary.Errors),
			zap.Int("no_data", summary.NoData),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
