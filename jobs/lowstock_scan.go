package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	jobmetrics "github.com/mesa-pos/mesa-pos/internal/jobs"
	"github.com/mesa-pos/mesa-pos/internal/ledger"
)

// LowStockLister exposes the ledger lookup the scan needs.
type LowStockLister interface {
	ListLowStock(ctx context.Context) ([]ledger.BranchStock, error)
}

// LowStockScanJob reports branch/item pairs at or below their reorder level
// so purchasing can restock before service is affected.
type LowStockScanJob struct {
	Ledger  LowStockLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewLowStockScanJob initialises the low stock scan handler.
func NewLowStockScanJob(ledgerPort LowStockLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{
		Ledger:  ledgerPort,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskLowStockScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	p := message.NewPrinter(language.English)
	start := j.now()
	logger := j.logger()
	logger.Info("starting low stock scan")

	pairs, err := j.Ledger.ListLowStock(ctx)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	perBranch := make(map[int64]int)
	for _, pair := range pairs {
		perBranch[pair.BranchID]++
		logger.Warn("stock at or below reorder level",
			slog.Int64("branch_id", pair.BranchID),
			slog.Int64("item_id", pair.ItemID),
			slog.String("quantity", p.Sprintf("%.2f", pair.Quantity)),
			slog.String("reorder_level", p.Sprintf("%.2f", pair.ReorderLevel)),
		)
	}
	for branchID, count := range perBranch {
		j.metrics().SetLowStock(strconv.FormatInt(branchID, 10), count)
	}

	logger.Info("completed low stock scan",
		slog.Int("pairs", len(pairs)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *LowStockScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *LowStockScanJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
