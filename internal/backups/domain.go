// Package backups exports company data into compressed archives, schedules
// automatic runs and enforces retention.
package backups

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Backup types.
const (
	TypeManual    = "manual"
	TypeAutomatic = "automatic"
)

// Backup statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Schedule frequencies.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Backup is one archive run.
type Backup struct {
	ID          int64      `json:"id"`
	FileName    string     `json:"file_name"`
	CompanyID   *int64     `json:"company_id"`
	CompanyName string     `json:"company_name,omitempty"`
	BackupType  string     `json:"backup_type"`
	Status      string     `json:"status"`
	SizeBytes   int64      `json:"size_bytes"`
	RecordCount int64      `json:"record_count"`
	StorageKey  string     `json:"-"`
	URL         *string    `json:"cloudinary_url"`
	Error       string     `json:"error,omitempty"`
	CreatedBy   *int64     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ScopeLabel names the backup scope for keys and logs.
func ScopeLabel(companyID *int64) string {
	if companyID == nil {
		return "system"
	}
	return "company-" + strconv.FormatInt(*companyID, 10)
}

// Settings configures automatic backups for a scope.
type Settings struct {
	CompanyID     *int64     `json:"company_id"`
	Enabled       bool       `json:"enabled"`
	Frequency     string     `json:"frequency"`
	TimeOfDay     string     `json:"time_of_day"`
	RetentionDays int        `json:"retention_days"`
	LastRunAt     *time.Time `json:"last_run_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DefaultSettings applies when a scope has never been configured.
func DefaultSettings(companyID *int64) Settings {
	return Settings{CompanyID: companyID, Frequency: FrequencyDaily, TimeOfDay: "02:00", RetentionDays: 30}
}

// SettingsInput updates a scope's schedule.
type SettingsInput struct {
	Enabled       bool   `json:"enabled"`
	Frequency     string `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	TimeOfDay     string `json:"time_of_day" validate:"required"`
	RetentionDays int    `json:"retention_days" validate:"gte=1,lte=3650"`
}

// ParseTimeOfDay parses an HH:MM wall clock value.
func ParseTimeOfDay(v string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok {
		return 0, 0, fmt.Errorf("time_of_day %q must be HH:MM", v)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time_of_day %q has an invalid hour", v)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || len(m) != 2 {
		return 0, 0, fmt.Errorf("time_of_day %q has an invalid minute", v)
	}
	return hour, minute, nil
}

// NextRun returns the next scheduled slot, in UTC. Settings that never
// ran are scheduled for today's slot, which may already be in the past.
func (s Settings) NextRun(now time.Time) time.Time {
	hour, minute, err := ParseTimeOfDay(s.TimeOfDay)
	if err != nil {
		hour, minute = 2, 0
	}
	now = now.UTC()
	if s.LastRunAt == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	}
	last := s.LastRunAt.UTC()
	slot := time.Date(last.Year(), last.Month(), last.Day(), hour, minute, 0, 0, time.UTC)
	if slot.After(last) {
		slot = slot.AddDate(0, 0, -1)
	}
	switch s.Frequency {
	case FrequencyWeekly:
		return slot.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return slot.AddDate(0, 1, 0)
	default:
		return slot.AddDate(0, 0, 1)
	}
}

// Due reports whether an automatic backup should start at now.
func (s Settings) Due(now time.Time) bool {
	return s.Enabled && !now.UTC().Before(s.NextRun(now))
}

// Stats summarises backups for a scope.
type Stats struct {
	Total        int        `json:"total"`
	Completed    int        `json:"completed"`
	Failed       int        `json:"failed"`
	InProgress   int        `json:"in_progress"`
	Manual       int        `json:"manual"`
	Automatic    int        `json:"automatic"`
	TotalSize    int64      `json:"total_size"`
	LastBackupAt *time.Time `json:"last_backup_at"`
}

// ListFilter narrows backup listings. AllScopes ignores CompanyID.
type ListFilter struct {
	CompanyID *int64
	AllScopes bool
	Status    string
	Type      string
	Page      int
	Limit     int
}

// ScheduleResult reports a scheduler pass.
type ScheduleResult struct {
	Checked  int     `json:"checked"`
	Enqueued []int64 `json:"enqueued"`
	Skipped  bool    `json:"skipped,omitempty"`
}
