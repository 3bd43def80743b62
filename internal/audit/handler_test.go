package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

type fakeTimeline struct {
	last TimelineFilters
	rows []TimelineRow
	err  error
}

func (f *fakeTimeline) Timeline(_ context.Context, filters TimelineFilters) (Result, error) {
	f.last = filters
	return Result{Rows: f.rows, Paging: shared.NewPagination(1, 20, len(f.rows))}, f.err
}

func (f *fakeTimeline) Export(_ context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	f.last = filters
	return f.rows, f.err
}

func newRouter(svc TimelineService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := rbac.Middleware{Service: rbac.NewService(nil), Logger: logger}
	r := chi.NewRouter()
	r.Use(mw.Principal)
	r.Route("/api/v1/audit", NewHandler(logger, svc, mw).MountRoutes)
	return r
}

func get(h http.Handler, path, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(rbac.HeaderUserID, "9")
	req.Header.Set(rbac.HeaderUserRole, role)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTimelineParsesFilters(t *testing.T) {
	svc := &fakeTimeline{rows: []TimelineRow{{ID: 1, ActorID: 4, Action: "credit:payment", Entity: "credit_sale", EntityID: "7"}}}
	h := newRouter(svc)

	rec := get(h, "/api/v1/audit/?entity=credit_sale&entity_id=7&actor_id=4&from=2024-03-01&to=2024-03-05&page=2&page_size=10", rbac.RoleAccountant)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, TimelineFilters{
		From:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		ActorID:  4,
		Entity:   "credit_sale",
		EntityID: "7",
		Page:     2,
		PageSize: 10,
	}, svc.last)

	var body Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "credit:payment", body.Rows[0].Action)
}

func TestTimelineRejectsBadInput(t *testing.T) {
	h := newRouter(&fakeTimeline{})
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/v1/audit/?from=03-01-2024", rbac.RoleAccountant).Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/v1/audit/?actor_id=x", rbac.RoleAccountant).Code)
}

func TestTimelineRequiresAuditPermission(t *testing.T) {
	h := newRouter(&fakeTimeline{})
	assert.Equal(t, http.StatusForbidden, get(h, "/api/v1/audit/", rbac.RoleCashier).Code)
	assert.Equal(t, http.StatusOK, get(h, "/api/v1/audit/", rbac.RoleManager).Code)
}

func TestExportWritesCSV(t *testing.T) {
	svc := &fakeTimeline{rows: []TimelineRow{{
		ID: 3, At: time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC), ActorID: 4,
		Action: "sales:invoice.cancel", Entity: "sales_invoice", EntityID: "12",
		Meta: map[string]any{"invoice_number": "INV-202403-00012"},
	}}}
	rec := get(newRouter(svc), "/api/v1/audit/export.csv", rbac.RoleAccountant)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "occurred_at,actor_id,action,entity,entity_id,meta", lines[0])
	assert.Equal(t, `2024-03-02T08:30:00Z,4,sales:invoice.cancel,sales_invoice,12,"{""invoice_number"":""INV-202403-00012""}"`, lines[1])
}

func TestExportIsRateLimitedPerUser(t *testing.T) {
	h := newRouter(&fakeTimeline{})
	for i := 0; i < exportRateLimit; i++ {
		require.Equal(t, http.StatusOK, get(h, "/api/v1/audit/export.csv", rbac.RoleAccountant).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(h, "/api/v1/audit/export.csv", rbac.RoleAccountant).Code)
}
