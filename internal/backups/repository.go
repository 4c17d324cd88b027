package backups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sellapp/sellapp/internal/platform/db"
	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// Repository defines backup persistence.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Backup, int, error)
	Get(ctx context.Context, id int64) (Backup, error)
	Insert(ctx context.Context, b Backup) (Backup, error)
	MarkCompleted(ctx context.Context, id int64, key, url string, size, records int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	Delete(ctx context.Context, id int64) error
	Expired(ctx context.Context, companyID *int64, before time.Time) ([]Backup, error)
	Stats(ctx context.Context, companyID *int64, all bool) (Stats, error)

	Settings(ctx context.Context, companyID *int64) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) (Settings, error)
	EnabledSettings(ctx context.Context) ([]Settings, error)
	TouchSettings(ctx context.Context, companyID *int64, at time.Time) error
}

// PGRepository implements Repository on Postgres.
type PGRepository struct {
	db db.DBTX
}

var _ Repository = (*PGRepository)(nil)

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const backupColumns = `b.id, b.file_name, b.company_id, COALESCE(c.name, ''), b.backup_type, b.status, b.size_bytes,
	b.record_count, COALESCE(b.storage_key, ''), b.cloudinary_url, COALESCE(b.error, ''), b.created_by, b.created_at, b.completed_at`

const backupFrom = ` FROM backups b LEFT JOIN companies c ON c.id = b.company_id`

func scanBackup(row pgx.Row) (Backup, error) {
	var b Backup
	err := row.Scan(&b.ID, &b.FileName, &b.CompanyID, &b.CompanyName, &b.BackupType, &b.Status, &b.SizeBytes,
		&b.RecordCount, &b.StorageKey, &b.URL, &b.Error, &b.CreatedBy, &b.CreatedAt, &b.CompletedAt)
	return b, err
}

func scopeWhere(where *db.Where, column string, companyID *int64) {
	if companyID == nil {
		where.Add(column + " IS NULL")
		return
	}
	where.Add(column+" = ?", *companyID)
}

// List returns backups newest first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Backup, int, error) {
	where := &db.Where{}
	if !filter.AllScopes {
		scopeWhere(where, "b.company_id", filter.CompanyID)
	}
	if filter.Status != "" {
		where.Add("b.status = ?", filter.Status)
	}
	if filter.Type != "" {
		where.Add("b.backup_type = ?", filter.Type)
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM backups b`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count backups: %w", err)
	}
	query := `SELECT ` + backupColumns + backupFrom + where.SQL() + ` ORDER BY b.created_at DESC, b.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + where.Next(filter.Limit) + ` OFFSET ` + where.Next((filter.Page-1)*filter.Limit)
	}
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()
	var out []Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// Get loads a backup by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Backup, error) {
	b, err := scanBackup(r.db.QueryRow(ctx, `SELECT `+backupColumns+backupFrom+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Backup{}, fmt.Errorf("backup %d: %w", id, httpx.ErrNotFound)
		}
		return Backup{}, err
	}
	return b, nil
}

// Insert creates a backup row.
func (r *PGRepository) Insert(ctx context.Context, b Backup) (Backup, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO backups (file_name, company_id, backup_type, status, created_by)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		b.FileName, b.CompanyID, b.BackupType, b.Status, b.CreatedBy).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return Backup{}, fmt.Errorf("insert backup: %w", err)
	}
	return b, nil
}

// MarkCompleted records a finished archive.
func (r *PGRepository) MarkCompleted(ctx context.Context, id int64, key, url string, size, records int64) error {
	_, err := r.db.Exec(ctx, `UPDATE backups SET status = 'completed', storage_key = $1, cloudinary_url = $2,
		size_bytes = $3, record_count = $4, error = NULL, completed_at = NOW() WHERE id = $5`,
		key, url, size, records, id)
	if err != nil {
		return fmt.Errorf("complete backup: %w", err)
	}
	return nil
}

// MarkFailed records a failed run.
func (r *PGRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.Exec(ctx, `UPDATE backups SET status = 'failed', error = $1, completed_at = NOW() WHERE id = $2`, reason, id)
	if err != nil {
		return fmt.Errorf("fail backup: %w", err)
	}
	return nil
}

// Delete removes a backup row.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM backups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("backup %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// Expired lists completed automatic backups of a scope created before cutoff.
func (r *PGRepository) Expired(ctx context.Context, companyID *int64, before time.Time) ([]Backup, error) {
	where := &db.Where{}
	scopeWhere(where, "b.company_id", companyID)
	where.Add("b.backup_type = ?", TypeAutomatic)
	where.Add("b.status = ?", StatusCompleted)
	where.Add("b.created_at < ?", before)
	rows, err := r.db.Query(ctx, `SELECT `+backupColumns+backupFrom+where.SQL()+` ORDER BY b.created_at`, where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list expired backups: %w", err)
	}
	defer rows.Close()
	var out []Backup
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Stats aggregates backups for a scope, or across all scopes when all is set.
func (r *PGRepository) Stats(ctx context.Context, companyID *int64, all bool) (Stats, error) {
	where := &db.Where{}
	if !all {
		scopeWhere(where, "company_id", companyID)
	}
	var s Stats
	err := r.db.QueryRow(ctx, `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = 'completed'),
		COUNT(*) FILTER (WHERE status = 'failed'),
		COUNT(*) FILTER (WHERE status = 'in_progress'),
		COUNT(*) FILTER (WHERE backup_type = 'manual'),
		COUNT(*) FILTER (WHERE backup_type = 'automatic'),
		COALESCE(SUM(size_bytes) FILTER (WHERE status = 'completed'), 0),
		MAX(completed_at) FILTER (WHERE status = 'completed')
		FROM backups`+where.SQL(), where.Args()...).
		Scan(&s.Total, &s.Completed, &s.Failed, &s.InProgress, &s.Manual, &s.Automatic, &s.TotalSize, &s.LastBackupAt)
	if err != nil {
		return Stats{}, fmt.Errorf("backup stats: %w", err)
	}
	return s, nil
}

const settingsColumns = `company_id, enabled, frequency, time_of_day, retention_days, last_run_at, updated_at`

func scanSettings(row pgx.Row) (Settings, error) {
	var s Settings
	err := row.Scan(&s.CompanyID, &s.Enabled, &s.Frequency, &s.TimeOfDay, &s.RetentionDays, &s.LastRunAt, &s.UpdatedAt)
	return s, err
}

// Settings loads a scope's schedule, falling back to defaults.
func (r *PGRepository) Settings(ctx context.Context, companyID *int64) (Settings, error) {
	where := &db.Where{}
	scopeWhere(where, "company_id", companyID)
	s, err := scanSettings(r.db.QueryRow(ctx, `SELECT `+settingsColumns+` FROM backup_settings`+where.SQL(), where.Args()...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultSettings(companyID), nil
		}
		return Settings{}, fmt.Errorf("load backup settings: %w", err)
	}
	return s, nil
}

// SaveSettings upserts a scope's schedule.
func (r *PGRepository) SaveSettings(ctx context.Context, s Settings) (Settings, error) {
	saved, err := scanSettings(r.db.QueryRow(ctx, `INSERT INTO backup_settings (company_id, enabled, frequency, time_of_day, retention_days)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ((COALESCE(company_id, 0))) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			frequency = EXCLUDED.frequency,
			time_of_day = EXCLUDED.time_of_day,
			retention_days = EXCLUDED.retention_days,
			updated_at = NOW()
		RETURNING `+settingsColumns,
		s.CompanyID, s.Enabled, s.Frequency, s.TimeOfDay, s.RetentionDays))
	if err != nil {
		return Settings{}, fmt.Errorf("save backup settings: %w", err)
	}
	return saved, nil
}

// EnabledSettings lists every scope with automatic backups turned on.
func (r *PGRepository) EnabledSettings(ctx context.Context) ([]Settings, error) {
	rows, err := r.db.Query(ctx, `SELECT `+settingsColumns+` FROM backup_settings WHERE enabled ORDER BY company_id NULLS FIRST`)
	if err != nil {
		return nil, fmt.Errorf("list backup settings: %w", err)
	}
	defer rows.Close()
	var out []Settings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TouchSettings stamps the last scheduler run for a scope.
func (r *PGRepository) TouchSettings(ctx context.Context, companyID *int64, at time.Time) error {
	where := &db.Where{}
	arg := where.Next(at)
	scopeWhere(where, "company_id", companyID)
	_, err := r.db.Exec(ctx, `UPDATE backup_settings SET last_run_at = `+arg+where.SQL(), where.Args()...)
	if err != nil {
		return fmt.Errorf("touch backup settings: %w", err)
	}
	return nil
}
