package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"ctspark-backend/internal/jobs"
	"ctspark-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner. An invalid
// cron expression fails here rather than silently dropping the job.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	// Settle pending payments whose webhook never arrived
	if _, err := s.cron.AddFunc(cfg.ReconcilePending, s.jobs.ReconcilePendingTransactions); err != nil {
		return fmt.Errorf("register ReconcilePendingTransactions job: %w", err)
	}

	// Warn operators before a plan pool runs dry
	if _, err := s.cron.AddFunc(cfg.CheckVoucherStock, s.jobs.CheckVoucherStock); err != nil {
		return fmt.Errorf("register CheckVoucherStock job: %w", err)
	}

	logger.Info("All cron jobs registered successfully", "jobs", len(s.cron.Entries()))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
