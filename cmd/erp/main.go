package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/textile-erp/cmd/erp/cli"
	"github.com/odyssey-erp/textile-erp/internal/app"
	"github.com/odyssey-erp/textile-erp/internal/audit"
	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/masterdata"
	"github.com/odyssey-erp/textile-erp/internal/observability"
	"github.com/odyssey-erp/textile-erp/internal/platform/cache"
	"github.com/odyssey-erp/textile-erp/internal/platform/db"
	"github.com/odyssey-erp/textile-erp/internal/production"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/sales"
	"github.com/odyssey-erp/textile-erp/internal/shared"
	"github.com/odyssey-erp/textile-erp/jobs"
	"github.com/odyssey-erp/textile-erp/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := cli.Run(ctx, cfg.RedisAddr, os.Args[2:], os.Stdout); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrateOnBoot {
		if err := db.Migrate(ctx, pool, migrations.Files, logger); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	masterRepo := masterdata.NewRepository(pool)
	masterCache := masterdata.NewCache(redisClient, cfg.CatalogCacheTTL)
	catalog := masterdata.NewCatalog(masterRepo, masterCache, logger)
	masterCache.Invalidations(ctx, func(version int64) {
		logger.Info("masterdata cache invalidated", slog.Int64("version", version))
	})

	auditLogger := shared.NewAuditLogger(pool)

	inventoryService := inventory.NewService(inventory.NewRepository(pool), catalog, auditLogger, inventory.ServiceConfig{
		AllowNegativeStock: cfg.InventoryAllowNegativeStock,
	}, logger)
	salesService := sales.NewService(sales.NewRepository(pool), catalog, auditLogger, sales.ServiceConfig{
		DefaultWarehouseID: cfg.SalesDefaultWarehouseID,
		CreditTermDays:     cfg.SalesCreditTermDays,
		ConflictRetries:    cfg.TxConflictRetries,
		StockPolicy:        inventoryService.Policy(),
	}, logger)
	creditService := credit.NewService(credit.NewRepository(pool), auditLogger, logger)
	productionService := production.NewService(production.NewRepository(pool), catalog, auditLogger, cfg.TxConflictRetries, logger)

	rbacService := rbac.NewService(nil)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() { _ = inspector.Close() }()
	jobClient := jobs.NewClient(redisOpts)
	defer func() { _ = jobClient.Close() }()

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		RBACMiddleware:     rbacMiddleware,
		InventoryHandler:   inventory.NewHandler(logger, inventoryService, rbacMiddleware),
		SalesHandler:       sales.NewHandler(logger, salesService, rbacMiddleware),
		CreditHandler:      credit.NewHandler(logger, creditService, rbacMiddleware),
		ProductionHandler:  production.NewHandler(logger, productionService, rbacMiddleware),
		MasterDataHandler:  masterdata.NewHandler(logger, catalog, rbacMiddleware),
		AuditHandler:       audit.NewHandler(logger, audit.NewService(audit.NewRepository(pool)), rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware),
		JobHandler:         jobs.NewHandler(inspector, jobClient, rbacMiddleware, logger),
		Metrics:            metrics,
		Ready: func(r *http.Request) error {
			if err := pool.Ping(r.Context()); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
