package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/textile-erp/internal/app"
	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/observability"
	"github.com/odyssey-erp/textile-erp/internal/production"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/sales"
)

func newServer(t *testing.T, m *mill) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := rbac.Middleware{Service: rbac.NewService(nil), Logger: logger}
	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            &app.Config{AppEnv: "test"},
		RBACMiddleware:    mw,
		InventoryHandler:  inventory.NewHandler(logger, m.inventory, mw),
		SalesHandler:      sales.NewHandler(logger, m.sales, mw),
		CreditHandler:     credit.NewHandler(logger, m.credit, mw),
		ProductionHandler: production.NewHandler(logger, m.production, mw),
		Metrics:           observability.NewMetrics(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, role, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(rbac.HeaderUserID, "7")
		req.Header.Set(rbac.HeaderUserRole, role)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestCreditSaleOverHTTP(t *testing.T) {
	m := newMill(t)
	srv := newServer(t, m)

	status, _ := call(t, srv, "warehouse", http.MethodPost, "/api/v1/inventory/adjustments",
		fmt.Sprintf(`{"product_id":%d,"warehouse_id":%d,"quantity":"100","direction":"in"}`, productP, warehouse1))
	require.Equal(t, http.StatusCreated, status)

	status, body := call(t, srv, "cashier", http.MethodPost, "/api/v1/sales/invoices",
		fmt.Sprintf(`{"customer_id":%d,"branch_id":1,"payment_method":"credit","items":[{"product_id":%d,"quantity":"5","price":"20"}]}`, customerC, productP))
	require.Equal(t, http.StatusCreated, status)
	creditID := int64(body["credit_id"].(float64))
	require.NotZero(t, creditID)

	status, body = call(t, srv, "cashier", http.MethodGet,
		fmt.Sprintf("/api/v1/inventory/positions/%d/%d", warehouse1, productP), "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "95", body["quantity"])

	paymentPath := fmt.Sprintf("/api/v1/credit/sales/%d/payments", creditID)
	status, body = call(t, srv, "cashier", http.MethodPost, paymentPath, `{"amount":"60","method":"cash"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "payment of 60.00 recorded, outstanding balance 40.00", body["message"])

	status, body = call(t, srv, "cashier", http.MethodPost, paymentPath, `{"amount":"41","method":"cash"}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	meta, ok := body["meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "40", meta["max_allowed"])

	status, _ = call(t, srv, "warehouse", http.MethodPost, paymentPath, `{"amount":"40","method":"cash"}`)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, srv, "", http.MethodPost, paymentPath, `{"amount":"40","method":"cash"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(t, srv, "cashier", http.MethodPost, paymentPath, `{"amount":"40","method":"transfer"}`)
	require.Equal(t, http.StatusCreated, status)
	sale := body["credit_sale"].(map[string]any)
	assert.Equal(t, string(credit.StatusPaid), sale["status"])

	status, _ = call(t, srv, "accountant", http.MethodGet, "/api/v1/credit/reconciliation", "")
	assert.Equal(t, http.StatusOK, status)
	m.assertLedgersBalanced(t)
}

func TestValidationProblemsNameTheField(t *testing.T) {
	m := newMill(t)
	srv := newServer(t, m)

	status, body := call(t, srv, "cashier", http.MethodPost, "/api/v1/sales/invoices",
		`{"customer_id":1,"branch_id":1,"payment_method":"cash","items":[{"quantity":"1","price":"20"}]}`)
	require.Equal(t, http.StatusBadRequest, status)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "items[0].product_id", meta["field"])

	status, body = call(t, srv, "production", http.MethodPost, "/api/v1/production/logs",
		`{"center_id":1,"input_product_id":1,"input_warehouse_id":1,"input_quantity":"10","output_product_id":2,"output_warehouse_id":2,"output_quantity":"5"}`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Insufficient Stock", body["title"])
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv := newServer(t, newMill(t))

	status, body := call(t, srv, "", http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "odyssey_http_requests_total")
}
