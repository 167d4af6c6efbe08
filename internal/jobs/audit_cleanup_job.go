package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const AuditCleanupJobName = "audit_cleanup"

// AuditPruner deletes audit entries older than the retention window.
type AuditPruner interface {
	CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error)
}

// RegisterAuditCleanupJob schedules audit retention. A non-positive
// retention disables the job.
func RegisterAuditCleanupJob(scheduler *Scheduler, pruner AuditPruner, logger *zap.Logger, cronExpr string, retentionDays int) error {
	if retentionDays <= 0 {
		logger.Info("audit cleanup disabled", zap.Int("retention_days", retentionDays))
		return nil
	}
	return scheduler.AddJob(AuditCleanupJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := cleanupAuditLogs(ctx, pruner, logger, retentionDays); err != nil {
			logger.Error("audit cleanup failed", zap.Error(err))
		}
	})
}

func cleanupAuditLogs(ctx context.Context, pruner AuditPruner, logger *zap.Logger, retentionDays int) error {
	deleted, err := pruner.CleanupOldLogs(ctx, retentionDays)
	if err != nil {
		return fmt.Errorf("failed to prune audit logs: %w", err)
	}
	logger.Info("audit cleanup completed",
		zap.Int64("deleted", deleted),
		zap.Int("retention_days", retentionDays))
	return nil
}
