package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sellapp/sellapp/internal/app"
	"github.com/sellapp/sellapp/internal/audit"
	audithttp "github.com/sellapp/sellapp/internal/audit/http"
	"github.com/sellapp/sellapp/internal/auth"
	"github.com/sellapp/sellapp/internal/backups"
	"github.com/sellapp/sellapp/internal/catalog"
	"github.com/sellapp/sellapp/internal/companies"
	"github.com/sellapp/sellapp/internal/dashboard"
	"github.com/sellapp/sellapp/internal/dashboard/export"
	dashboardhttp "github.com/sellapp/sellapp/internal/dashboard/http"
	"github.com/sellapp/sellapp/internal/observability"
	"github.com/sellapp/sellapp/internal/platform/cache"
	"github.com/sellapp/sellapp/internal/platform/db"
	"github.com/sellapp/sellapp/internal/platform/storage"
	"github.com/sellapp/sellapp/internal/pos"
	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/repairs"
	"github.com/sellapp/sellapp/internal/shared"
	"github.com/sellapp/sellapp/internal/swaps"
	"github.com/sellapp/sellapp/internal/view"
	"github.com/sellapp/sellapp/jobs"
	"github.com/sellapp/sellapp/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns, MaxConnIdleTime: cfg.PGMaxConnIdleTime})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	rbacService := rbac.NewService(rbac.NewPGGrants(dbpool))
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, tokens, templates, sessionManager, csrfManager)
	authenticator := auth.NewAuthenticator(tokens, authService, logger)

	activity := shared.NewActivityLogger(dbpool)
	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)

	companiesService := companies.NewService(companies.NewRepository(dbpool))
	companiesHandler := companies.NewHandler(logger, companiesService, rbacMiddleware)

	catalogService := catalog.NewService(catalog.NewRepository(dbpool), activity, dashboardCache, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService, rbacMiddleware)

	posService := pos.NewService(pos.NewRepository(dbpool), activity, dashboardCache, logger)
	posHandler := pos.NewHandler(logger, posService, rbacMiddleware)

	repairsService := repairs.NewService(repairs.NewRepository(dbpool), activity, dashboardCache, logger)
	repairsHandler := repairs.NewHandler(logger, repairsService, rbacMiddleware)

	swapsService := swaps.NewService(swaps.NewRepository(dbpool), activity, dashboardCache, logger)
	swapsHandler := swaps.NewHandler(logger, swapsService, rbacMiddleware)

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

	backupsRepo := backups.NewRepository(dbpool)
	backupsService := backups.NewService(backupsRepo, jobClient, backups.NewRedisLocker(redisClient), logger)
	backupsHandler := backups.NewHandler(logger, backupsService, rbacMiddleware)

	board := dashboard.NewBoard(logger, metrics, cfg.DashboardWidgetTimeout)
	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool), dashboardCache, board, catalogService, activity, logger)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)
	dashboardHandler := dashboardhttp.NewHandler(logger, dashboardService, export.New(reportClient), templates, csrfManager, rbacMiddleware)

	auditHandler := audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)), rbacMiddleware)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	// Archives are written by the worker; warn early on a misconfigured provider.
	if _, err := storage.New(ctx, cfg.StorageConfig()); err != nil {
		logger.Warn("backup storage unavailable", slog.String("provider", cfg.StorageProvider), slog.Any("error", err))
	}

	go func() {
		err := dashboardCache.Subscribe(ctx, func(version int64) {
			logger.Debug("dashboard cache invalidated", slog.Int64("version", version))
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("dashboard cache subscribe", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Authenticator:    authenticator,
		Metrics:          metrics,
		RBAC:             rbacMiddleware,
		AuthHandler:      authHandler,
		CompaniesHandler: companiesHandler,
		POSHandler:       posHandler,
		RepairsHandler:   repairsHandler,
		SwapsHandler:     swapsHandler,
		CatalogHandler:   catalogHandler,
		BackupsHandler:   backupsHandler,
		DashboardHandler: dashboardHandler,
		AuditHandler:     auditHandler,
		ReportHandler:    reportHandler,
		JobHandler:       jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
