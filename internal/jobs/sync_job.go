package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/service"
	"go.uber.org/zap"
)

// SyncJobName is the name of the company/customer sync job
const SyncJobName = "company_customer_sync"

// SyncRunner performs a full bidirectional company/customer sync.
type SyncRunner interface {
	InitialBidirectionalSync(ctx context.Context) (*domain.BidirectionalSyncResult, error)
}

// SyncSettingsReader exposes the persisted sync settings.
type SyncSettingsReader interface {
	Sync(ctx context.Context) domain.SyncSettings
}

// SyncJob runs the bidirectional sync when auto-sync is enabled and the
// configured interval has elapsed since the last sync.
type SyncJob struct {
	runner   SyncRunner
	settings SyncSettingsReader
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewSyncJob(runner SyncRunner, settings SyncSettingsReader, logger *zap.Logger, timeout time.Duration) *SyncJob {
	return &SyncJob{
		runner:   runner,
		settings: settings,
		logger:   logger,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Due reports whether a sync should run at now under the given settings.
func (j *SyncJob) Due(settings domain.SyncSettings, now time.Time) bool {
	if !settings.AutoSyncEnabled {
		return false
	}
	if settings.LastSyncAt == nil || settings.SyncIntervalMinutes <= 0 {
		return true
	}
	interval := time.Duration(settings.SyncIntervalMinutes) * time.Minute
	return !now.Before(settings.LastSyncAt.Add(interval))
}

// Run is invoked by the scheduler.
func (j *SyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	settings := j.settings.Sync(ctx)
	if !j.Due(settings, j.now()) {
		j.logger.Debug("sync job skipped", zap.Bool("auto_sync_enabled", settings.AutoSyncEnabled))
		return
	}

	start := time.Now()
	result, err := j.runner.InitialBidirectionalSync(ctx)
	if err != nil {
		if errors.Is(err, service.ErrSyncRunning) {
			j.logger.Info("sync job skipped: a sync is already running")
			return
		}
		j.logger.Error("sync job failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("sync job completed",
		zap.Int("companies_processed", result.CompaniesToCustomers.Processed),
		zap.Int("customers_processed", result.CustomersToCompanies.Processed),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", time.Since(start)))
}

// RegisterSyncJob registers the sync job with the scheduler.
func RegisterSyncJob(scheduler *Scheduler, runner SyncRunner, settings SyncSettingsReader, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewSyncJob(runner, settings, logger, timeout)
	return scheduler.AddJob(SyncJobName, cronExpr, job.Run)
}
