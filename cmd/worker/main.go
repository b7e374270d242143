package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/inkwell-erp/inkwell-erp/internal/app"
	"github.com/inkwell-erp/inkwell-erp/internal/finance"
	jobmetrics "github.com/inkwell-erp/inkwell-erp/internal/jobs"
	"github.com/inkwell-erp/inkwell-erp/internal/platform/cache"
	"github.com/inkwell-erp/inkwell-erp/internal/platform/db"
	"github.com/inkwell-erp/inkwell-erp/internal/reconcile"
	"github.com/inkwell-erp/inkwell-erp/internal/shared"
	"github.com/inkwell-erp/inkwell-erp/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	metrics := jobmetrics.NewMetrics(nil)

	reconcileRepo := reconcile.NewRepository(pool)
	engine := reconcile.NewEngine(reconcileRepo, auditLogger, logger)
	reportCache := reconcile.NewReportCache(redisClient, cfg.ReportCacheTTL)
	refreshJob := jobs.NewReconcileRefreshJob(engine, reportCache, logger, metrics)

	financeRepo := finance.NewRepository(pool)
	financeService := finance.NewService(financeRepo, auditLogger, logger)
	warmupJob := jobs.NewFinanceSummaryWarmupJob(financeService, logger, metrics)

	idempotencyStore := shared.NewIdempotencyStore(pool)
	cleanupJob := jobs.NewIdempotencyCleanupJob(idempotencyStore, logger, metrics)

	warmupTask, err := jobs.NewFinanceSummaryWarmupTask(jobs.FinanceSummaryWarmupPayload{Months: 12})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.IdempotencyCleanupPayload{RetentionHours: cfg.IdempotencyRetentionHours})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReconcileRefresh, Handler: refreshJob.Handle},
			{Type: jobs.TaskFinanceSummaryWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.FinanceWarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.IdempotencyCleanupCron, Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
