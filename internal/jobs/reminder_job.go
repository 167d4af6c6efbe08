package jobs

import (
	"context"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"go.uber.org/zap"
)

const ReminderJobName = "reminders"

// ReminderSource evaluates the auto-reminder rules.
type ReminderSource interface {
	Due(ctx context.Context, now time.Time) ([]domain.Reminder, error)
}

// ReminderJob evaluates reminder rules and logs every due reminder. Delivery
// channels read the same list through the API.
type ReminderJob struct {
	source  ReminderSource
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewReminderJob(source ReminderSource, logger *zap.Logger, timeout time.Duration) *ReminderJob {
	return &ReminderJob{
		source:  source,
		logger:  logger,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run evaluates the rules and returns how many reminders are due.
func (j *ReminderJob) Run() int {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	reminders, err := j.source.Due(ctx, j.now())
	if err != nil {
		j.logger.Error("reminder job failed", zap.Error(err))
		return 0
	}
	for _, r := range reminders {
		j.logger.Info("reminder due",
			zap.String("rule_id", r.RuleID),
			zap.String("trigger", string(r.Trigger)),
			zap.String("channel", r.Channel),
			zap.String("entity_type", r.EntityType),
			zap.String("entity_id", r.EntityID.String()),
			zap.Time("since", r.Since))
	}
	return len(reminders)
}

func RegisterReminderJob(scheduler *Scheduler, source ReminderSource, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewReminderJob(source, logger, timeout)
	return scheduler.AddJob(ReminderJobName, cronExpr, func() { job.Run() })
}
