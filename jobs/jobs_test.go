package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	jobmetrics "github.com/odyssey-erp/textile-erp/internal/jobs"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/testing/memstore"
	"github.com/odyssey-erp/textile-erp/jobs"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if matchLabels(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(pairs []*dto.LabelPair, expected map[string]string) bool {
	seen := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		seen[pair.GetName()] = pair.GetValue()
	}
	for k, v := range expected {
		if seen[k] != v {
			return false
		}
	}
	return true
}

func seededLedgers(t *testing.T) (*inventory.Service, *credit.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	store.SeedTextile()
	logger := quietLogger()
	inv := inventory.NewService(store.Inventory(), store.Catalog(), store, inventory.ServiceConfig{}, logger)
	_, err := inv.Adjust(context.Background(), inventory.AdjustInput{
		ProductID: 1, WarehouseID: 1, Quantity: decimal.NewFromInt(80), Direction: inventory.DirectionIn,
	})
	require.NoError(t, err)
	return inv, credit.NewService(store.Credit(), store, logger), store
}

func TestLedgerReconcileJobCountsMismatches(t *testing.T) {
	inv, cr, store := seededLedgers(t)
	sale := store.AddCreditSale(1, decimal.NewFromInt(100), time.Now())
	store.CorruptPosition(1, 1, decimal.NewFromInt(75))
	store.CorruptInvoicePaid(sale.InvoiceID, decimal.NewFromInt(10))

	reg := prometheus.NewRegistry()
	job := jobs.NewLedgerReconcileJob(inv, cr, quietLogger(), jobmetrics.NewMetrics(reg))
	task, err := jobs.NewLedgerReconcileTask("")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 1.0, counterValue(t, reg, "odyssey_ledger_mismatches_total", map[string]string{"ledger": "stock"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "odyssey_ledger_mismatches_total", map[string]string{"ledger": "credit"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "odyssey_jobs_total", map[string]string{"job": jobs.TaskLedgerReconcile, "status": "success"}))
}

func TestLedgerReconcileJobBalanced(t *testing.T) {
	inv, cr, _ := seededLedgers(t)
	job := jobs.NewLedgerReconcileJob(inv, cr, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Balanced())
}

type failingStock struct{ err error }

func (f failingStock) Reconcile(context.Context) ([]inventory.Discrepancy, error) { return nil, f.err }

func TestLedgerReconcileJobFailure(t *testing.T) {
	_, cr, _ := seededLedgers(t)
	boom := errors.New("replica lagging")
	reg := prometheus.NewRegistry()
	job := jobs.NewLedgerReconcileJob(failingStock{err: boom}, cr, quietLogger(), jobmetrics.NewMetrics(reg))
	task, err := jobs.NewLedgerReconcileTask("manual")
	require.NoError(t, err)

	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
	assert.Equal(t, 1.0, counterValue(t, reg, "odyssey_jobs_failures_total", map[string]string{"job": jobs.TaskLedgerReconcile}))
}

func TestLedgerReconcileJobRejectsGarbage(t *testing.T) {
	inv, cr, _ := seededLedgers(t)
	job := jobs.NewLedgerReconcileJob(inv, cr, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskLedgerReconcile, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type stubPurger struct {
	olderThan time.Duration
	purged    int64
}

func (s *stubPurger) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	s.olderThan = olderThan
	return s.purged, nil
}

func TestIdempotencyCleanupJob(t *testing.T) {
	purger := &stubPurger{purged: 42}
	reg := prometheus.NewRegistry()
	job := jobs.NewIdempotencyCleanupJob(purger, 24*time.Hour, quietLogger(), jobmetrics.NewMetrics(reg))

	task, err := jobs.NewIdempotencyCleanupTask(168 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 168*time.Hour, purger.olderThan)
	assert.Equal(t, 42.0, counterValue(t, reg, "odyssey_idempotency_keys_purged_total", nil))
}

type stubEnqueuer struct{ triggers []string }

func (s *stubEnqueuer) EnqueueLedgerReconcile(_ context.Context, trigger string) (*asynq.TaskInfo, error) {
	s.triggers = append(s.triggers, trigger)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

func TestHandlerReconcileRequiresJobsPermission(t *testing.T) {
	enq := &stubEnqueuer{}
	mw := rbac.Middleware{Service: rbac.NewService(nil), Logger: quietLogger()}
	r := chi.NewRouter()
	r.Use(mw.Principal)
	r.Route("/jobs", jobs.NewHandler(nil, enq, mw, quietLogger()).MountRoutes)

	send := func(method, path, role string) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(rbac.HeaderUserID, "1")
		req.Header.Set(rbac.HeaderUserRole, role)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, send(http.MethodPost, "/jobs/reconcile", rbac.RoleAccountant))
	assert.Equal(t, http.StatusAccepted, send(http.MethodPost, "/jobs/reconcile", rbac.RoleAdmin))
	assert.Equal(t, []string{"manual"}, enq.triggers)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/jobs/health", rbac.RoleAccountant))
}
