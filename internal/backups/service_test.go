package backups

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/sellapp/sellapp/internal/jobs"
	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/platform/storage"
	"github.com/sellapp/sellapp/internal/shared"
)

type stubRepo struct {
	backups  map[int64]Backup
	settings []Settings
	touched  []*int64
	nextID   int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{backups: map[int64]Backup{}}
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]Backup, int, error) {
	var out []Backup
	for _, b := range s.backups {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (s *stubRepo) Get(ctx context.Context, id int64) (Backup, error) {
	b, ok := s.backups[id]
	if !ok {
		return Backup{}, httpx.ErrNotFound
	}
	return b, nil
}

func (s *stubRepo) Insert(ctx context.Context, b Backup) (Backup, error) {
	s.nextID++
	b.ID = s.nextID
	b.CreatedAt = time.Now().UTC()
	s.backups[b.ID] = b
	return b, nil
}

func (s *stubRepo) MarkCompleted(ctx context.Context, id int64, key, url string, size, records int64) error {
	b := s.backups[id]
	b.Status, b.StorageKey, b.URL, b.SizeBytes, b.RecordCount = StatusCompleted, key, &url, size, records
	s.backups[id] = b
	return nil
}

func (s *stubRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	b := s.backups[id]
	b.Status, b.Error = StatusFailed, reason
	s.backups[id] = b
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id int64) error {
	delete(s.backups, id)
	return nil
}

func (s *stubRepo) Expired(ctx context.Context, companyID *int64, before time.Time) ([]Backup, error) {
	var out []Backup
	for _, b := range s.backups {
		if b.BackupType == TypeAutomatic && b.Status == StatusCompleted && b.CreatedAt.Before(before) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubRepo) Stats(ctx context.Context, companyID *int64, all bool) (Stats, error) {
	return Stats{Total: len(s.backups)}, nil
}

func (s *stubRepo) Settings(ctx context.Context, companyID *int64) (Settings, error) {
	for _, cfg := range s.settings {
		if (cfg.CompanyID == nil) == (companyID == nil) && (companyID == nil || *cfg.CompanyID == *companyID) {
			return cfg, nil
		}
	}
	return DefaultSettings(companyID), nil
}

func (s *stubRepo) SaveSettings(ctx context.Context, cfg Settings) (Settings, error) {
	s.settings = append(s.settings, cfg)
	return cfg, nil
}

func (s *stubRepo) EnabledSettings(ctx context.Context) ([]Settings, error) {
	var out []Settings
	for _, cfg := range s.settings {
		if cfg.Enabled {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *stubRepo) TouchSettings(ctx context.Context, companyID *int64, at time.Time) error {
	s.touched = append(s.touched, companyID)
	return nil
}

type stubQueue struct {
	ids []int64
	err error
}

func (q *stubQueue) EnqueueBackup(ctx context.Context, id int64) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func company(id int64) *int64 { return &id }

func TestCreateManualBackup(t *testing.T) {
	repo := newStubRepo()
	queue := &stubQueue{}
	svc := NewService(repo, queue, nil, nil)
	mgr := shared.Principal{UserID: 3, Role: shared.RoleManager, CompanyID: company(8)}

	b, err := svc.Create(context.Background(), mgr, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, b.Status)
	assert.Equal(t, TypeManual, b.BackupType)
	require.NotNil(t, b.CompanyID)
	assert.Equal(t, int64(8), *b.CompanyID)
	assert.Contains(t, b.FileName, "backup-company-8-")
	assert.Equal(t, []int64{b.ID}, queue.ids)

	_, err = svc.Create(context.Background(), mgr, 9)
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	admin := shared.Principal{UserID: 1, Role: shared.RoleSystemAdmin}
	sys, err := svc.Create(context.Background(), admin, 0)
	require.NoError(t, err)
	assert.Nil(t, sys.CompanyID)
}

func TestCreateMarksFailedWhenQueueDown(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, &stubQueue{err: errors.New("redis down")}, nil, nil)
	mgr := shared.Principal{UserID: 3, Role: shared.RoleManager, CompanyID: company(8)}

	_, err := svc.Create(context.Background(), mgr, 0)
	require.Error(t, err)
	require.Len(t, repo.backups, 1)
	assert.Equal(t, StatusFailed, repo.backups[1].Status)
}

func TestRunScheduledEnqueuesDueScopes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newStubRepo()
	recent := time.Date(2026, 3, 10, 2, 1, 0, 0, time.UTC)
	repo.settings = []Settings{
		{CompanyID: company(1), Enabled: true, Frequency: FrequencyDaily, TimeOfDay: "02:00"},
		{CompanyID: company(2), Enabled: true, Frequency: FrequencyDaily, TimeOfDay: "02:00", LastRunAt: &recent},
		{CompanyID: company(3), Enabled: false, Frequency: FrequencyDaily, TimeOfDay: "02:00"},
	}
	queue := &stubQueue{}
	svc := NewService(repo, queue, NewRedisLocker(client), nil)
	svc.clock = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	result, err := svc.RunScheduled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	require.Len(t, result.Enqueued, 1)
	assert.Equal(t, TypeAutomatic, repo.backups[result.Enqueued[0]].BackupType)
	require.Len(t, repo.touched, 1)
	assert.Equal(t, int64(1), *repo.touched[0])
	assert.False(t, mr.Exists(schedulerLockKey), "lock released after the run")
}

func TestRunScheduledSkipsWhileLocked(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	locker := NewRedisLocker(client)
	release, ok, err := locker.TryLock(context.Background(), schedulerLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	svc := NewService(newStubRepo(), &stubQueue{}, locker, nil)
	result, err := svc.RunScheduled(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestSaveSettingsValidation(t *testing.T) {
	svc := NewService(newStubRepo(), &stubQueue{}, nil, nil)
	mgr := shared.Principal{UserID: 3, Role: shared.RoleManager, CompanyID: company(8)}

	_, err := svc.SaveSettings(context.Background(), mgr, 0, SettingsInput{Enabled: true, Frequency: "hourly", TimeOfDay: "02:00", RetentionDays: 7})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.SaveSettings(context.Background(), mgr, 0, SettingsInput{Enabled: true, Frequency: "daily", TimeOfDay: "2am", RetentionDays: 7})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	saved, err := svc.SaveSettings(context.Background(), mgr, 0, SettingsInput{Enabled: true, Frequency: "Weekly", TimeOfDay: "03:30", RetentionDays: 14})
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, saved.Frequency)
	assert.Equal(t, int64(8), *saved.CompanyID)
}

type stubDumper struct {
	rows map[string][]string
	err  error
}

func (d stubDumper) Dump(ctx context.Context, companyID *int64, emit func(string, json.RawMessage) error) error {
	if d.err != nil {
		return d.err
	}
	for table, rows := range d.rows {
		for _, row := range rows {
			if err := emit(table, json.RawMessage(row)); err != nil {
				return err
			}
		}
	}
	return nil
}

func TestRunnerArchivesAndAppliesRetention(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocal(dir, "")
	require.NoError(t, err)
	repo := newStubRepo()
	repo.settings = []Settings{{CompanyID: company(4), Enabled: true, Frequency: FrequencyDaily, TimeOfDay: "02:00", RetentionDays: 7}}

	old, _ := repo.Insert(context.Background(), Backup{FileName: "old.ndjson.gz", CompanyID: company(4), BackupType: TypeAutomatic, Status: StatusCompleted, StorageKey: "backups/company-4/old.ndjson.gz"})
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -30)
	repo.backups[old.ID] = old
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "backups", "company-4"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backups", "company-4", "old.ndjson.gz"), []byte("x"), 0o644))

	current, _ := repo.Insert(context.Background(), Backup{FileName: "new.ndjson.gz", CompanyID: company(4), BackupType: TypeAutomatic, Status: StatusInProgress})

	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	runner := NewRunner(repo, stubDumper{rows: map[string][]string{
		"sales":    {`{"id":1}`, `{"id":2}`},
		"products": {`{"id":9}`},
	}}, store, metrics, nil)
	runner.tempDir = t.TempDir()

	require.NoError(t, runner.Run(context.Background(), current.ID))

	done := repo.backups[current.ID]
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, int64(3), done.RecordCount)
	assert.Positive(t, done.SizeBytes)
	assert.FileExists(t, filepath.Join(dir, "backups", "company-4", "new.ndjson.gz"))

	_, stillThere := repo.backups[old.ID]
	assert.False(t, stillThere, "expired automatic backup removed")
	assert.NoFileExists(t, filepath.Join(dir, "backups", "company-4", "old.ndjson.gz"))
}

func TestRunnerRecordsFailure(t *testing.T) {
	store, err := storage.NewLocal(t.TempDir(), "")
	require.NoError(t, err)
	repo := newStubRepo()
	b, _ := repo.Insert(context.Background(), Backup{FileName: "f.ndjson.gz", BackupType: TypeManual, Status: StatusInProgress})

	runner := NewRunner(repo, stubDumper{err: errors.New("relation sales does not exist")}, store, nil, nil)
	runner.tempDir = t.TempDir()

	err = runner.Run(context.Background(), b.ID)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, repo.backups[b.ID].Status)
	assert.Contains(t, repo.backups[b.ID].Error, "relation sales")
}
