package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sellapp/sellapp/internal/dashboard"
	jobmetrics "github.com/sellapp/sellapp/internal/jobs"
)

// DashboardWarmer preloads dashboard caches.
type DashboardWarmer interface {
	Warm(ctx context.Context) (dashboard.AdminOverview, error)
}

// DashboardWarmupJob keeps the platform dashboard cache hot.
type DashboardWarmupJob struct {
	Warmer  DashboardWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// Handle processes dashboard:warmup. Degraded widgets are logged but do not
// fail the task.
func (j *DashboardWarmupJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Warmer == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskDashboardWarmup)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("job", TaskDashboardWarmup))

	start := time.Now()
	overview, err := j.Warmer.Warm(ctx)
	if err != nil {
		logger.Error("dashboard warmup", slog.Any("error", err))
		return err
	}
	degraded := 0
	for _, status := range overview.Status {
		if status == dashboard.StatusDegraded {
			degraded++
		}
	}
	logger.Info("dashboard warmed", slog.Int("degraded_widgets", degraded), slog.Duration("duration", time.Since(start)))
	return nil
}
