package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	jobmetrics "github.com/mesa-pos/mesa-pos/internal/jobs"
	"github.com/mesa-pos/mesa-pos/internal/transfer"
)

// TransferLister exposes the transfer lookups the scan needs.
type TransferLister interface {
	ListDiscrepancies(ctx context.Context, since time.Time) ([]transfer.StockTransfer, error)
}

// DiscrepancyScanJob reports transfers that completed with shipped/received
// mismatches inside the scan window.
type DiscrepancyScanJob struct {
	Transfers TransferLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
	printer   *message.Printer
}

// NewDiscrepancyScanJob initialises the discrepancy scan handler.
func NewDiscrepancyScanJob(transfers TransferLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *DiscrepancyScanJob {
	return &DiscrepancyScanJob{
		Transfers: transfers,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		printer: message.NewPrinter(language.English),
	}
}

// Handle executes the scan.
func (j *DiscrepancyScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Transfers == nil {
		return errors.New("discrepancy scan: handler not configured")
	}
	var payload DiscrepancyScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowHours <= 0 {
		payload.WindowHours = 24
	}

	tracker := j.metrics().Track(TaskDiscrepancyScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	p := j.printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}

	start := j.now()
	since := start.Add(-time.Duration(payload.WindowHours) * time.Hour)
	logger := j.logger().With(slog.Int("window_hours", payload.WindowHours))
	logger.Info("starting discrepancy scan")

	transfers, err := j.Transfers.ListDiscrepancies(ctx, since)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	lines := 0
	for _, tr := range transfers {
		for _, item := range tr.Items {
			if !item.Discrepancy {
				continue
			}
			lines++
			j.metrics().AddDiscrepancies(item.DiscrepancyReason, 1)
			logger.Warn("transfer discrepancy",
				slog.String("transfer_number", tr.TransferNumber),
				slog.Int64("origin_id", tr.OriginID),
				slog.Int64("destination_id", tr.DestinationID),
				slog.Int64("item_id", item.ItemID),
				slog.String("reason", item.DiscrepancyReason),
				slog.String("shipped", p.Sprintf("%.2f", item.QuantityShipped)),
				slog.String("received", p.Sprintf("%.2f", item.QuantityReceived)),
				slog.String("difference", p.Sprintf("%.2f", item.DiscrepancyQty)),
			)
		}
	}

	logger.Info("completed discrepancy scan",
		slog.Int("transfers", len(transfers)),
		slog.Int("lines", lines),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *DiscrepancyScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *DiscrepancyScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *DiscrepancyScanJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
