package inventory_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

func newRouter(svc inventory.InventoryService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := rbac.Middleware{Service: rbac.NewService(nil), Logger: logger}
	r := chi.NewRouter()
	r.Use(mw.Principal)
	r.Route("/api/v1/inventory", inventory.NewHandler(logger, svc, mw).MountRoutes)
	return r
}

func do(h http.Handler, method, path, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(rbac.HeaderUserID, "7")
		req.Header.Set(rbac.HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Adjustment(t *testing.T) {
	type testCase struct {
		name       string
		role       string
		body       string
		setupMock  func(m *inventory.MockInventoryService)
		wantStatus int
		wantField  string
	}

	tests := []testCase{
		{
			name: "Success",
			role: rbac.RoleWarehouse,
			body: `{"product_id":1,"warehouse_id":1,"quantity":"12000","direction":"in"}`,
			setupMock: func(m *inventory.MockInventoryService) {
				m.EXPECT().
					Adjust(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, in inventory.AdjustInput) (inventory.Transaction, error) {
						assert.Equal(t, int64(7), in.ActorID)
						assert.True(t, in.Quantity.Equal(decimal.NewFromInt(12000)))
						return inventory.Transaction{ID: 1, Type: inventory.TypeReceipt, Quantity: in.Quantity}, nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "MissingDirection",
			role:       rbac.RoleWarehouse,
			body:       `{"product_id":1,"warehouse_id":1,"quantity":"1"}`,
			setupMock:  func(m *inventory.MockInventoryService) {},
			wantStatus: http.StatusBadRequest,
			wantField:  "direction",
		},
		{
			name:       "UnknownField",
			role:       rbac.RoleWarehouse,
			body:       `{"product_id":1,"warehouse_id":1,"quantity":"1","direction":"in","price":3}`,
			setupMock:  func(m *inventory.MockInventoryService) {},
			wantStatus: http.StatusBadRequest,
			wantField:  "body",
		},
		{
			name: "InsufficientStock",
			role: rbac.RoleWarehouse,
			body: `{"product_id":1,"warehouse_id":1,"quantity":"5","direction":"out"}`,
			setupMock: func(m *inventory.MockInventoryService) {
				m.EXPECT().
					Adjust(gomock.Any(), gomock.Any()).
					Return(inventory.Transaction{}, shared.InsufficientStock(1, 1, decimal.NewFromInt(2), decimal.NewFromInt(5)))
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "Forbidden",
			role:       rbac.RoleCashier,
			body:       `{"product_id":1,"warehouse_id":1,"quantity":"5","direction":"in"}`,
			setupMock:  func(m *inventory.MockInventoryService) {},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "Anonymous",
			body:       `{"product_id":1,"warehouse_id":1,"quantity":"5","direction":"in"}`,
			setupMock:  func(m *inventory.MockInventoryService) {},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := inventory.NewMockInventoryService(ctrl)
			tt.setupMock(svc)

			rec := do(newRouter(svc), http.MethodPost, "/api/v1/inventory/adjustments", tt.role, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantField != "" {
				var problem struct {
					Meta map[string]any `json:"meta"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
				assert.Equal(t, tt.wantField, problem.Meta["field"])
			}
		})
	}
}

func TestHandler_TransferConfirmsQuantity(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := inventory.NewMockInventoryService(ctrl)
	svc.EXPECT().
		Transfer(gomock.Any(), gomock.Any()).
		Return(inventory.TransferResult{}, nil)

	rec := do(newRouter(svc), http.MethodPost, "/api/v1/inventory/transfers", rbac.RoleWarehouse,
		`{"product_id":2,"from_warehouse_id":1,"to_warehouse_id":2,"quantity":"1250.5"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1,250.5 units of product 2 moved from warehouse 1 to warehouse 2", body["message"])
}

func TestHandler_TransferSameWarehouse(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := inventory.NewMockInventoryService(ctrl)

	rec := do(newRouter(svc), http.MethodPost, "/api/v1/inventory/transfers", rbac.RoleWarehouse,
		`{"product_id":2,"from_warehouse_id":1,"to_warehouse_id":1,"quantity":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ListTransactionsParsesFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := inventory.NewMockInventoryService(ctrl)
	svc.EXPECT().
		ListTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, f inventory.TransactionFilter) ([]inventory.Transaction, error) {
			assert.Equal(t, int64(1), f.WarehouseID)
			assert.Equal(t, 50, f.Limit)
			assert.Equal(t, 2024, f.From.Year())
			assert.Equal(t, 23, f.To.Hour())
			return nil, nil
		})

	rec := do(newRouter(svc), http.MethodGet,
		"/api/v1/inventory/transactions?warehouse_id=1&limit=50&from=2024-01-01&to=2024-01-31", rbac.RoleAccountant, "")
	// accountants reconcile but cannot browse the ledger
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(newRouter(svc), http.MethodGet,
		"/api/v1/inventory/transactions?warehouse_id=1&limit=50&from=2024-01-01&to=2024-01-31", rbac.RoleWarehouse, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ListTransactionsBadDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := inventory.NewMockInventoryService(ctrl)

	rec := do(newRouter(svc), http.MethodGet, "/api/v1/inventory/transactions?from=01-01-2024", rbac.RoleWarehouse, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Reconciliation(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := inventory.NewMockInventoryService(ctrl)
	svc.EXPECT().Reconcile(gomock.Any()).Return([]inventory.Discrepancy{{WarehouseID: 1, ProductID: 1}}, nil)

	rec := do(newRouter(svc), http.MethodGet, "/api/v1/inventory/reconciliation", rbac.RoleAccountant, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Balanced bool `json:"balanced"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Balanced)
}
