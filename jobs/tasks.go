package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueBackups isolates archive runs from short jobs.
	QueueBackups = "backups"

	// TaskBackupRun archives one pending backup.
	TaskBackupRun = "backup:run"
	// TaskBackupScheduled queues automatic backups for every due scope.
	TaskBackupScheduled = "backup:scheduled"
	// TaskDashboardWarmup preloads the platform dashboard cache.
	TaskDashboardWarmup = "dashboard:warmup"

	// ScheduledBackupCron is how often due backup settings are checked.
	ScheduledBackupCron = "*/15 * * * *"
	// DashboardWarmupCron refreshes the platform dashboard cache.
	DashboardWarmupCron = "*/10 * * * *"
)

// BackupRunPayload identifies the backup row to archive.
type BackupRunPayload struct {
	BackupID int64 `json:"backup_id"`
}

// NewBackupRunTask constructs a backup:run task.
func NewBackupRunTask(backupID int64) (*asynq.Task, error) {
	if backupID <= 0 {
		return nil, fmt.Errorf("backup run: invalid backup id %d", backupID)
	}
	data, err := json.Marshal(BackupRunPayload{BackupID: backupID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBackupRun, data, asynq.Queue(QueueBackups), asynq.MaxRetry(3)), nil
}

// NewBackupScheduledTask constructs the periodic scheduler task.
func NewBackupScheduledTask() *asynq.Task {
	return asynq.NewTask(TaskBackupScheduled, nil, asynq.MaxRetry(1))
}

// NewDashboardWarmupTask constructs the dashboard warmup task.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardWarmup, nil, asynq.MaxRetry(1))
}

func decodeBackupRun(t *asynq.Task) (BackupRunPayload, error) {
	var payload BackupRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("backup run payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.BackupID <= 0 {
		return payload, fmt.Errorf("backup run payload: missing backup id: %w", asynq.SkipRetry)
	}
	return payload, nil
}
