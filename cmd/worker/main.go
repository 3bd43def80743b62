package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/textile-erp/internal/app"
	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/masterdata"
	"github.com/odyssey-erp/textile-erp/internal/platform/db"
	"github.com/odyssey-erp/textile-erp/internal/shared"
	"github.com/odyssey-erp/textile-erp/jobs"
)

const idempotencyCleanupCron = "30 3 * * *"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(".env")
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Reconciliation only reads, so the catalog runs without the Redis layer.
	catalog := masterdata.NewCatalog(masterdata.NewRepository(pool), nil, logger)
	auditLogger := shared.NewAuditLogger(pool)
	inventoryService := inventory.NewService(inventory.NewRepository(pool), catalog, auditLogger, inventory.ServiceConfig{
		AllowNegativeStock: cfg.InventoryAllowNegativeStock,
	}, logger)
	creditService := credit.NewService(credit.NewRepository(pool), auditLogger, logger)

	reconcileJob := jobs.NewLedgerReconcileJob(inventoryService, creditService, logger, nil)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), cfg.IdempotencyRetention, logger, nil)

	reconcileTask, err := jobs.NewLedgerReconcileTask("cron")
	if err != nil {
		logger.Error("build reconcile task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyRetention)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerReconcile, Handler: reconcileJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ReconcileCron, Task: reconcileTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: idempotencyCleanupCron, Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("reconcile_cron", cfg.ReconcileCron))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
