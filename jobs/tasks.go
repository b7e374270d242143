package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReconcileRefresh recomputes fulfillment status for one order.
	TaskReconcileRefresh = "reconcile:refresh"
	// TaskFinanceSummaryWarmup pre-populates the monthly cash book summary.
	TaskFinanceSummaryWarmup = "finance:summary_warmup"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ReconcileRefreshPayload identifies the order to refresh.
type ReconcileRefreshPayload struct {
	OrderID int64 `json:"order_id"`
}

// NewReconcileRefreshTask constructs an Asynq task for one order.
func NewReconcileRefreshTask(payload ReconcileRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileRefresh, data), nil
}

// FinanceSummaryWarmupPayload configures the warmup window in months.
type FinanceSummaryWarmupPayload struct {
	Months int `json:"months"`
}

// NewFinanceSummaryWarmupTask constructs the cron-driven warmup task.
func NewFinanceSummaryWarmupTask(payload FinanceSummaryWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFinanceSummaryWarmup, data), nil
}

// IdempotencyCleanupPayload configures the key retention window in hours.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs the cron-driven cleanup task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
