package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helios-erp/helios-erp/internal/observability"
)

const (
	// TaskLowStockScan sweeps stock records for items under their minimum
	// level. Registered as a nightly cron entry.
	TaskLowStockScan = "inventory:low_stock_scan"
)

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs an Asynq task for the nightly sweep.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// HandleLowStockScanTask counts low-stock items and open shortages, refreshes
// the gauge, and mails a summary to the inventory team when anything is low.
func HandleLowStockScanTask(db *pgxpool.Pool, metrics *observability.Metrics, notifyAddress string, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LowStockScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		var low int
		if err := db.QueryRow(ctx,
			`SELECT COUNT(*) FROM inventory_records WHERE quantity < min_stock_level`,
		).Scan(&low); err != nil {
			return err
		}

		var openShortages int
		if err := db.QueryRow(ctx,
			`SELECT COUNT(*) FROM shortage_requests WHERE status <> 'received'`,
		).Scan(&openShortages); err != nil {
			return err
		}
		metrics.SetOpenShortages(openShortages)

		logger.Info("low stock scan",
			slog.Int("low_stock_items", low),
			slog.Int("open_shortages", openShortages))

		if low == 0 {
			return nil
		}
		email := SendEmailPayload{
			To:      notifyAddress,
			Subject: "Low stock summary",
			Body:    "Items below minimum stock level: " + itoa(low),
		}
		task, err := NewSendEmailTask(email)
		if err != nil {
			return err
		}
		return HandleSendEmailTask(ctx, task)
	}
}
