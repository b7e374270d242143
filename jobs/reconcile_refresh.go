package jobs

import (
	"context"
	"encoding/json"
	"errors"

	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/inkwell-erp/inkwell-erp/internal/jobs"
	"github.com/inkwell-erp/inkwell-erp/internal/reconcile"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReconcileRefreshJob recomputes the fulfillment report for an order after
// a delivery lands and bumps the report cache.
type ReconcileRefreshJob struct {
	Engine  *reconcile.Engine
	Cache   *reconcile.ReportCache
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReconcileRefreshJob wires dependencies for the refresh handler.
func NewReconcileRefreshJob(engine *reconcile.Engine, cache *reconcile.ReportCache, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileRefreshJob {
	return &ReconcileRefreshJob{Engine: engine, Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes reconcile refresh tasks.
func (j *ReconcileRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Engine == nil {
		return errors.New("reconcile refresh: handler not configured")
	}
	var payload ReconcileRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.OrderID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskReconcileRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("order_id", payload.OrderID))

	report, err := j.Engine.Reconcile(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, reconcile.ErrNotFound) {
			logger.Warn("order vanished before refresh")
			return asynq.SkipRetry
		}
		resultErr = err
		logger.Error("reconcile refresh", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddWarnings("serial_mismatch", len(report.MismatchedSerials))

	if j.Cache != nil {
		if err := j.Cache.Bump(ctx); err != nil {
			logger.Warn("cache bump failed", slog.Any("error", err))
		}
	}

	logger.Info("reconcile refresh completed",
		slog.Int("total_linked", report.TotalLinked),
		slog.Float64("completion", report.CompletionPercentage))
	return resultErr
}

func (j *ReconcileRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskReconcileRefresh))
	}
	return slog.Default().With(slog.String("job", TaskReconcileRefresh))
}

func (j *ReconcileRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
