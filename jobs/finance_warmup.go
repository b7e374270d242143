package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/inkwell-erp/inkwell-erp/internal/finance"
	jobmetrics "github.com/inkwell-erp/inkwell-erp/internal/jobs"
)

// FinanceSummaryWarmupJob pre-computes the monthly cash book summary so the
// first dashboard request of the day does not pay the aggregation cost.
type FinanceSummaryWarmupJob struct {
	Finance *finance.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewFinanceSummaryWarmupJob wires dependencies for the warmup handler.
func NewFinanceSummaryWarmupJob(financeSvc *finance.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *FinanceSummaryWarmupJob {
	return &FinanceSummaryWarmupJob{
		Finance: financeSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes finance warmup tasks.
func (j *FinanceSummaryWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Finance == nil {
		return errors.New("finance warmup: handler not configured")
	}
	var payload FinanceSummaryWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Months <= 0 {
		payload.Months = 12
	}

	tracker := j.metrics().Track(TaskFinanceSummaryWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	warmupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := j.now()
	from := now.AddDate(0, -payload.Months, 0)
	summary, err := j.Finance.Summary(warmupCtx, from, now)
	if err != nil {
		resultErr = err
		j.logger().Error("finance warmup", slog.Any("error", err))
		return resultErr
	}

	j.logger().Info("finance warmup completed",
		slog.Int("months", len(summary)),
		slog.Duration("duration", time.Since(now)))
	return resultErr
}

func (j *FinanceSummaryWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFinanceSummaryWarmup))
	}
	return slog.Default().With(slog.String("job", TaskFinanceSummaryWarmup))
}

func (j *FinanceSummaryWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *FinanceSummaryWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
