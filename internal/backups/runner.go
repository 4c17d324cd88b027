package backups

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	jobmetrics "github.com/sellapp/sellapp/internal/jobs"
	"github.com/sellapp/sellapp/internal/platform/storage"
)

const archiveVersion = 1

type archiveHeader struct {
	Version   int       `json:"version"`
	BackupID  int64     `json:"backup_id"`
	Scope     string    `json:"scope"`
	CreatedAt time.Time `json:"created_at"`
}

type archiveLine struct {
	Table string          `json:"table"`
	Row   json.RawMessage `json:"row"`
}

// Runner executes queued backups.
type Runner struct {
	repo    Repository
	dumper  Dumper
	store   storage.Store
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
	tempDir string
	clock   func() time.Time
}

// NewRunner wires the archive pipeline.
func NewRunner(repo Repository, dumper Dumper, store storage.Store, metrics *jobmetrics.Metrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		repo:    repo,
		dumper:  dumper,
		store:   store,
		metrics: metrics,
		logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Run archives backup id. A failure is recorded on the backup row and
// also returned so the job can retry.
func (r *Runner) Run(ctx context.Context, id int64) error {
	backup, err := r.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if backup.Status == StatusCompleted {
		return nil
	}
	logger := r.logger.With(slog.Int64("backup_id", id), slog.String("scope", ScopeLabel(backup.CompanyID)))
	defer os.Remove(r.localPath(r.objectKey(backup)))

	key, size, records, err := r.archive(ctx, backup)
	var url string
	if err == nil {
		var obj storage.Object
		obj, err = r.upload(ctx, key, size)
		url = obj.URL
	}
	if err != nil {
		logger.Error("backup failed", slog.Any("error", err))
		if markErr := r.repo.MarkFailed(context.WithoutCancel(ctx), id, err.Error()); markErr != nil {
			logger.Error("mark backup failed", slog.Any("error", markErr))
		}
		return err
	}
	if err := r.repo.MarkCompleted(ctx, id, key, url, size, records); err != nil {
		return err
	}
	r.metrics.AddBackup(backup.BackupType, records, size)
	logger.Info("backup completed", slog.Int64("records", records), slog.Int64("size_bytes", size))

	if backup.BackupType == TypeAutomatic {
		if err := r.enforceRetention(ctx, backup.CompanyID); err != nil {
			logger.Warn("backup retention", slog.Any("error", err))
		}
	}
	return nil
}

func (r *Runner) objectKey(b Backup) string {
	return "backups/" + ScopeLabel(b.CompanyID) + "/" + b.FileName
}

func (r *Runner) localPath(key string) string {
	dir := r.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sellapp-"+strings.ReplaceAll(key, "/", "_"))
}

// archive writes the gzip NDJSON file and returns its key, size and row count.
func (r *Runner) archive(ctx context.Context, b Backup) (string, int64, int64, error) {
	key := r.objectKey(b)
	f, err := os.Create(r.localPath(key))
	if err != nil {
		return "", 0, 0, fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	if err := enc.Encode(archiveHeader{
		Version:   archiveVersion,
		BackupID:  b.ID,
		Scope:     ScopeLabel(b.CompanyID),
		CreatedAt: r.clock(),
	}); err != nil {
		return "", 0, 0, err
	}
	var records int64
	err = r.dumper.Dump(ctx, b.CompanyID, func(table string, row json.RawMessage) error {
		records++
		return enc.Encode(archiveLine{Table: table, Row: row})
	})
	if err != nil {
		return "", 0, 0, err
	}
	if err := gz.Close(); err != nil {
		return "", 0, 0, fmt.Errorf("finish archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		return "", 0, 0, err
	}
	return key, info.Size(), records, nil
}

func (r *Runner) upload(ctx context.Context, key string, size int64) (storage.Object, error) {
	f, err := os.Open(r.localPath(key))
	if err != nil {
		return storage.Object{}, err
	}
	defer f.Close()
	obj, err := r.store.Put(ctx, key, f, size, "application/gzip")
	if err != nil {
		return storage.Object{}, fmt.Errorf("upload archive: %w", err)
	}
	return obj, nil
}

func (r *Runner) enforceRetention(ctx context.Context, companyID *int64) error {
	settings, err := r.repo.Settings(ctx, companyID)
	if err != nil {
		return err
	}
	if settings.RetentionDays <= 0 {
		return nil
	}
	cutoff := r.clock().AddDate(0, 0, -settings.RetentionDays)
	expired, err := r.repo.Expired(ctx, companyID, cutoff)
	if err != nil {
		return err
	}
	var errs []error
	for _, b := range expired {
		if b.StorageKey != "" {
			if err := r.store.Delete(ctx, b.StorageKey); err != nil {
				errs = append(errs, fmt.Errorf("delete object %s: %w", b.StorageKey, err))
				continue
			}
		}
		if err := r.repo.Delete(ctx, b.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if len(expired) > 0 {
		r.logger.Info("backup retention applied", slog.String("scope", ScopeLabel(companyID)), slog.Int("removed", len(expired)-len(errs)))
	}
	return errors.Join(errs...)
}
