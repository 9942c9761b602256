package jobs

import (
	"ctspark-backend/internal/config"
	"ctspark-backend/internal/logger"
	"ctspark-backend/internal/repository"
	"ctspark-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	ledgerRepo repository.LedgerRepository
	services   *Services
	config     *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Reconciler service.ReconcileService
	Inventory  service.InventoryService
	Alerts     service.AlertService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(ledgerRepo repository.LedgerRepository, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		ledgerRepo: ledgerRepo,
		services:   services,
		config:     cfg,
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ReconcilePendingTransactions()
	jr.CheckVoucherStock()
}
