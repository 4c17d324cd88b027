package backups

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
)

const (
	schedulerLockKey = "sellapp:lock:backups:scheduler"
	schedulerLockTTL = 5 * time.Minute
)

// Enqueuer hands a backup to the background worker.
type Enqueuer interface {
	EnqueueBackup(ctx context.Context, backupID int64) error
}

// Service implements backup management.
type Service struct {
	repo     Repository
	queue    Enqueuer
	locker   Locker
	logger   *slog.Logger
	validate *validator.Validate
	clock    func() time.Time
}

// NewService constructs a Service. locker may be nil when only one
// scheduler ever runs.
func NewService(repo Repository, queue Enqueuer, locker Locker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		queue:    queue,
		locker:   locker,
		logger:   logger,
		validate: validator.New(),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns backups. Admins without a company filter see every scope.
func (s *Service) List(ctx context.Context, principal shared.Principal, requestedCompany int64, filter ListFilter) ([]Backup, shared.Pagination, error) {
	scope, err := principal.Scope(requestedCompany)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	filter.CompanyID = scope
	filter.AllScopes = scope == nil
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = shared.DefaultPerPage
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.Limit, total), nil
}

// Create starts a manual backup. Admins requesting company 0 back up the
// whole system.
func (s *Service) Create(ctx context.Context, principal shared.Principal, requestedCompany int64) (Backup, error) {
	scope, err := principal.Scope(requestedCompany)
	if err != nil {
		return Backup{}, err
	}
	actor := principal.UserID
	return s.start(ctx, scope, TypeManual, &actor)
}

func (s *Service) start(ctx context.Context, scope *int64, backupType string, actor *int64) (Backup, error) {
	now := s.clock()
	backup, err := s.repo.Insert(ctx, Backup{
		FileName:   fileName(scope, now),
		CompanyID:  scope,
		BackupType: backupType,
		Status:     StatusInProgress,
		CreatedBy:  actor,
	})
	if err != nil {
		return Backup{}, err
	}
	if err := s.queue.EnqueueBackup(ctx, backup.ID); err != nil {
		reason := fmt.Sprintf("enqueue backup: %v", err)
		if markErr := s.repo.MarkFailed(context.WithoutCancel(ctx), backup.ID, reason); markErr != nil {
			s.logger.Error("mark backup failed", slog.Int64("backup_id", backup.ID), slog.Any("error", markErr))
		}
		return Backup{}, fmt.Errorf("enqueue backup %d: %w", backup.ID, err)
	}
	s.logger.Info("backup queued", slog.Int64("backup_id", backup.ID), slog.String("scope", ScopeLabel(scope)), slog.String("type", backupType))
	return backup, nil
}

func fileName(scope *int64, at time.Time) string {
	return fmt.Sprintf("backup-%s-%s-%s.ndjson.gz", ScopeLabel(scope), at.Format("20060102-150405"), uuid.NewString()[:8])
}

// Settings returns the schedule of a scope.
func (s *Service) Settings(ctx context.Context, principal shared.Principal, requestedCompany int64) (Settings, error) {
	scope, err := principal.Scope(requestedCompany)
	if err != nil {
		return Settings{}, err
	}
	return s.repo.Settings(ctx, scope)
}

// SaveSettings updates the schedule of a scope.
func (s *Service) SaveSettings(ctx context.Context, principal shared.Principal, requestedCompany int64, input SettingsInput) (Settings, error) {
	input.Frequency = strings.ToLower(strings.TrimSpace(input.Frequency))
	if err := s.validate.Struct(input); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if _, _, err := ParseTimeOfDay(input.TimeOfDay); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	scope, err := principal.Scope(requestedCompany)
	if err != nil {
		return Settings{}, err
	}
	return s.repo.SaveSettings(ctx, Settings{
		CompanyID:     scope,
		Enabled:       input.Enabled,
		Frequency:     input.Frequency,
		TimeOfDay:     strings.TrimSpace(input.TimeOfDay),
		RetentionDays: input.RetentionDays,
	})
}

// Stats summarises backups. Admins without a company filter get totals
// across every scope.
func (s *Service) Stats(ctx context.Context, principal shared.Principal, requestedCompany int64) (Stats, error) {
	scope, err := principal.Scope(requestedCompany)
	if err != nil {
		return Stats{}, err
	}
	return s.repo.Stats(ctx, scope, scope == nil)
}

// RunScheduled queues an automatic backup for every due scope. Concurrent
// callers are serialised by a lease; a caller that cannot obtain it
// returns a skipped result.
func (s *Service) RunScheduled(ctx context.Context) (ScheduleResult, error) {
	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, schedulerLockKey, schedulerLockTTL)
		if err != nil {
			return ScheduleResult{}, fmt.Errorf("obtain scheduler lock: %w", err)
		}
		if !ok {
			s.logger.Info("backup scheduler already running")
			return ScheduleResult{Skipped: true}, nil
		}
		defer release()
	}

	settings, err := s.repo.EnabledSettings(ctx)
	if err != nil {
		return ScheduleResult{}, err
	}
	now := s.clock()
	result := ScheduleResult{Checked: len(settings), Enqueued: []int64{}}
	for _, cfg := range settings {
		if !cfg.Due(now) {
			continue
		}
		backup, err := s.start(ctx, cfg.CompanyID, TypeAutomatic, nil)
		if err != nil {
			s.logger.Error("scheduled backup", slog.String("scope", ScopeLabel(cfg.CompanyID)), slog.Any("error", err))
			continue
		}
		if err := s.repo.TouchSettings(ctx, cfg.CompanyID, now); err != nil {
			return result, err
		}
		result.Enqueued = append(result.Enqueued, backup.ID)
	}
	return result, nil
}
