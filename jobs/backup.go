package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/sellapp/sellapp/internal/backups"
	jobmetrics "github.com/sellapp/sellapp/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// BackupRunner archives a single backup row.
type BackupRunner interface {
	Run(ctx context.Context, id int64) error
}

// BackupScheduler queues automatic backups for due settings.
type BackupScheduler interface {
	RunScheduled(ctx context.Context) (backups.ScheduleResult, error)
}

// BackupJob handles the backup:run and backup:scheduled tasks.
type BackupJob struct {
	Runner    BackupRunner
	Scheduler BackupScheduler
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// HandleRun processes backup:run. A malformed payload is not retried.
func (j *BackupJob) HandleRun(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Runner == nil {
		return errors.New("backup run: handler not configured")
	}
	payload, err := decodeBackupRun(t)
	if err != nil {
		j.logger().Warn("discard backup task", slog.Any("error", err))
		return err
	}
	tracker := j.metrics().Track(TaskBackupRun)
	defer func() {
		err = tracker.End(err)
	}()
	return j.Runner.Run(ctx, payload.BackupID)
}

// HandleScheduled processes backup:scheduled.
func (j *BackupJob) HandleScheduled(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Scheduler == nil {
		return errors.New("backup scheduler: handler not configured")
	}
	tracker := j.metrics().Track(TaskBackupScheduled)
	defer func() {
		err = tracker.End(err)
	}()

	result, err := j.Scheduler.RunScheduled(ctx)
	if err != nil {
		j.logger().Error("scheduled backups", slog.Any("error", err))
		return err
	}
	j.logger().Info("scheduled backups checked",
		slog.Int("checked", result.Checked),
		slog.Int("enqueued", len(result.Enqueued)),
		slog.Bool("skipped", result.Skipped))
	return nil
}

func (j *BackupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", "backup"))
	}
	return slog.Default().With(slog.String("job", "backup"))
}

func (j *BackupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
