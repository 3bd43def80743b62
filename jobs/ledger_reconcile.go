package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	jobmetrics "github.com/odyssey-erp/textile-erp/internal/jobs"
)

// StockReconciler lists positions that disagree with the stock ledger.
type StockReconciler interface {
	Reconcile(ctx context.Context) ([]inventory.Discrepancy, error)
}

// CreditReconciler lists credit sales that disagree with their payments or invoice.
type CreditReconciler interface {
	Reconcile(ctx context.Context) ([]credit.Discrepancy, error)
}

// LedgerReport is the outcome of one reconciliation run.
type LedgerReport struct {
	Stock  []inventory.Discrepancy `json:"stock"`
	Credit []credit.Discrepancy    `json:"credit"`
}

// Balanced reports whether both ledgers agree with their derived state.
func (r LedgerReport) Balanced() bool {
	return len(r.Stock) == 0 && len(r.Credit) == 0
}

// LedgerReconcileJob runs the stock and credit reconciliations side by side.
type LedgerReconcileJob struct {
	Stock   StockReconciler
	Credit  CreditReconciler
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerReconcileJob constructs the job handler.
func NewLedgerReconcileJob(stock StockReconciler, credit CreditReconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerReconcileJob {
	return &LedgerReconcileJob{Stock: stock, Credit: credit, Logger: logger, Metrics: metrics}
}

// Handle executes the reconcile job. Mismatches are reported, not repaired.
func (j *LedgerReconcileJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Stock == nil || j.Credit == nil {
		return errors.New("ledger reconcile: dependencies not configured")
	}
	var payload LedgerReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskLedgerReconcile)
	start := time.Now()
	report, err := j.Run(ctx)
	if err != nil {
		j.log().Error("reconcile ledgers", slog.String("trigger", payload.Trigger), slog.Any("error", err))
		return tracker.End(err)
	}
	j.log().Info("ledgers reconciled",
		slog.String("trigger", payload.Trigger),
		slog.Bool("balanced", report.Balanced()),
		slog.Int("stock_mismatches", len(report.Stock)),
		slog.Int("credit_mismatches", len(report.Credit)),
		slog.Duration("duration", time.Since(start)))
	return tracker.End(nil)
}

// Run reconciles both ledgers concurrently and records the mismatch counts.
func (j *LedgerReconcileJob) Run(ctx context.Context) (LedgerReport, error) {
	var report LedgerReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := j.Stock.Reconcile(gctx)
		report.Stock = out
		return err
	})
	g.Go(func() error {
		out, err := j.Credit.Reconcile(gctx)
		report.Credit = out
		return err
	})
	if err := g.Wait(); err != nil {
		return LedgerReport{}, err
	}

	for _, d := range report.Stock {
		j.log().Warn("stock position drift",
			slog.Int64("warehouse_id", d.WarehouseID),
			slog.Int64("product_id", d.ProductID),
			slog.String("position", d.Position.String()),
			slog.String("ledger_sum", d.LedgerSum.String()))
	}
	for _, d := range report.Credit {
		j.log().Warn("credit settlement drift",
			slog.Int64("credit_id", d.CreditID),
			slog.Int64("invoice_id", d.InvoiceID),
			slog.String("credit_paid", d.CreditPaid.String()),
			slog.String("payments_total", d.PaymentsTotal.String()),
			slog.String("invoice_paid", d.InvoicePaid.String()))
	}
	j.metrics().AddMismatches("stock", len(report.Stock))
	j.metrics().AddMismatches("credit", len(report.Credit))
	return report, nil
}

func (j *LedgerReconcileJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LedgerReconcileJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerReconcile))
	}
	return slog.Default().With(slog.String("job", TaskLedgerReconcile))
}
