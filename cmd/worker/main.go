package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/sellapp/sellapp/internal/app"
	"github.com/sellapp/sellapp/internal/backups"
	"github.com/sellapp/sellapp/internal/catalog"
	"github.com/sellapp/sellapp/internal/dashboard"
	jobmetrics "github.com/sellapp/sellapp/internal/jobs"
	"github.com/sellapp/sellapp/internal/observability"
	"github.com/sellapp/sellapp/internal/platform/cache"
	"github.com/sellapp/sellapp/internal/platform/db"
	"github.com/sellapp/sellapp/internal/platform/storage"
	"github.com/sellapp/sellapp/internal/shared"
	"github.com/sellapp/sellapp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, MaxConnIdleTime: cfg.PGMaxConnIdleTime})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := storage.New(ctx, cfg.StorageConfig())
	if err != nil {
		logger.Error("init backup storage", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)

	backupsRepo := backups.NewRepository(pool)
	backupJob := &jobs.BackupJob{
		Runner:    backups.NewRunner(backupsRepo, backups.NewDumper(pool), store, metrics, logger),
		Scheduler: backups.NewService(backupsRepo, jobClient, backups.NewRedisLocker(redisClient), logger),
		Logger:    logger,
		Metrics:   metrics,
	}

	activity := shared.NewActivityLogger(pool)
	cache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	catalogService := catalog.NewService(catalog.NewRepository(pool), activity, cache, logger)
	board := dashboard.NewBoard(logger, observability.NewMetrics(), cfg.DashboardWidgetTimeout)
	warmupJob := &jobs.DashboardWarmupJob{
		Warmer:  dashboard.NewService(dashboard.NewRepository(pool), cache, board, catalogService, activity, logger),
		Logger:  logger,
		Metrics: metrics,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskBackupRun, Handler: backupJob.HandleRun},
			{Type: jobs.TaskBackupScheduled, Handler: backupJob.HandleScheduled},
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.ScheduledBackupCron, Task: jobs.NewBackupScheduledTask()},
			{Spec: jobs.DashboardWarmupCron, Task: jobs.NewDashboardWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
