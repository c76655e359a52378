package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDiscrepancyScan reports transfers completed with discrepancies.
	TaskDiscrepancyScan = "transfer:discrepancy_scan"
	// TaskLowStockScan reports branch/item pairs at or below reorder level.
	TaskLowStockScan = "ledger:lowstock_scan"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "shared:idempotency_cleanup"
)

// DiscrepancyScanPayload bounds the scan window.
type DiscrepancyScanPayload struct {
	WindowHours int `json:"window_hours"`
}

// NewDiscrepancyScanTask constructs an Asynq task for the discrepancy scan.
func NewDiscrepancyScanTask(windowHours int) (*asynq.Task, error) {
	body, err := json.Marshal(DiscrepancyScanPayload{WindowHours: windowHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDiscrepancyScan, body, asynq.Queue(QueueDefault)), nil
}

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs an Asynq task for the low stock scan.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupPayload sets how long processed keys are retained.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for key cleanup.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
