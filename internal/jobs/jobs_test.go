package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/jobs"
	"github.com/formula-lab/crm-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSync struct {
	calls atomic.Int32
	err   error
}

func (f *fakeSync) InitialBidirectionalSync(ctx context.Context) (*domain.BidirectionalSyncResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.BidirectionalSyncResult{}, nil
}

type fixedSettings domain.SyncSettings

func (s fixedSettings) Sync(ctx context.Context) domain.SyncSettings {
	return domain.SyncSettings(s)
}

func TestScheduler_AddRemove(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "0 0 * * * *", func() {}))
	require.NoError(t, s.AddJob("a", "@hourly", func() {}))
	assert.Equal(t, []string{"a", "b"}, s.JobNames())

	assert.Error(t, s.AddJob("a", "@hourly", func() {}), "duplicate names are rejected")
	assert.Error(t, s.AddJob("c", "not a schedule", func() {}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.JobNames())
}

func TestScheduler_RunsAndStops(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	var runs atomic.Int32
	require.NoError(t, s.AddJob("tick", "* * * * * *", func() { runs.Add(1) }))

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}

func TestSyncJob_Due(t *testing.T) {
	job := jobs.NewSyncJob(&fakeSync{}, fixedSettings{}, zap.NewNop(), time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-10 * time.Minute)

	assert.False(t, job.Due(domain.SyncSettings{AutoSyncEnabled: false}, now))
	assert.True(t, job.Due(domain.SyncSettings{AutoSyncEnabled: true}, now), "never synced")
	assert.False(t, job.Due(domain.SyncSettings{AutoSyncEnabled: true, SyncIntervalMinutes: 15, LastSyncAt: &last}, now))
	assert.True(t, job.Due(domain.SyncSettings{AutoSyncEnabled: true, SyncIntervalMinutes: 10, LastSyncAt: &last}, now))
}

func TestSyncJob_Run(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		runner := &fakeSync{}
		jobs.NewSyncJob(runner, fixedSettings{AutoSyncEnabled: false}, zap.NewNop(), time.Minute).Run()
		assert.Equal(t, int32(0), runner.calls.Load())
	})

	t.Run("enabled", func(t *testing.T) {
		runner := &fakeSync{}
		jobs.NewSyncJob(runner, fixedSettings{AutoSyncEnabled: true}, zap.NewNop(), time.Minute).Run()
		assert.Equal(t, int32(1), runner.calls.Load())
	})

	t.Run("already running is tolerated", func(t *testing.T) {
		runner := &fakeSync{err: service.ErrSyncRunning}
		jobs.NewSyncJob(runner, fixedSettings{AutoSyncEnabled: true}, zap.NewNop(), time.Minute).Run()
		assert.Equal(t, int32(1), runner.calls.Load())
	})
}

type fakeReminders struct {
	reminders []domain.Reminder
	err       error
}

func (f fakeReminders) Due(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	return f.reminders, f.err
}

func TestReminderJob_Run(t *testing.T) {
	src := fakeReminders{reminders: []domain.Reminder{
		{RuleID: "r1", EntityType: "request", EntityID: uuid.New()},
		{RuleID: "r2", EntityType: "case", EntityID: uuid.New()},
	}}
	assert.Equal(t, 2, jobs.NewReminderJob(src, zap.NewNop(), time.Minute).Run())

	failing := fakeReminders{err: errors.New("boom")}
	assert.Equal(t, 0, jobs.NewReminderJob(failing, zap.NewNop(), time.Minute).Run())
}

type fakePruner struct{}

func (fakePruner) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	return 0, nil
}

func TestRegisterAuditCleanupJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, jobs.RegisterAuditCleanupJob(s, fakePruner{}, zap.NewNop(), "@daily", 0))
	assert.Empty(t, s.JobNames(), "zero retention keeps logs forever")

	require.NoError(t, jobs.RegisterAuditCleanupJob(s, fakePruner{}, zap.NewNop(), "@daily", 90))
	assert.Equal(t, []string{jobs.AuditCleanupJobName}, s.JobNames())
}
