package production_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/odyssey-erp/textile-erp/internal/production"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

func newRouter(svc production.ProductionService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := rbac.Middleware{Service: rbac.NewService(nil), Logger: logger}
	r := chi.NewRouter()
	r.Use(mw.Principal)
	r.Route("/api/v1/production", production.NewHandler(logger, svc, mw).MountRoutes)
	return r
}

func call(h http.Handler, method, path, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(rbac.HeaderUserID, "6")
		req.Header.Set(rbac.HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const recordBody = `{"production_date":"2024-03-05","center_id":1,"input_product_id":1,"input_warehouse_id":1,"input_quantity":"250","output_product_id":2,"output_warehouse_id":2,"output_quantity":"240.5"}`

func TestHandler_RecordProduction(t *testing.T) {
	type testCase struct {
		name       string
		role       string
		body       string
		setupMock  func(m *production.MockProductionService)
		wantStatus int
	}

	tests := []testCase{
		{
			name: "Success",
			role: rbac.RoleProduction,
			body: recordBody,
			setupMock: func(m *production.MockProductionService) {
				m.EXPECT().
					RecordProduction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, in production.RecordInput) (production.Log, error) {
						assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), in.Date)
						assert.Equal(t, int64(6), in.RecordedBy)
						return production.Log{
							ID: 1, InputProductID: 1, InputQuantity: in.InputQuantity,
							OutputProductID: 2, OutputQuantity: in.OutputQuantity,
						}, nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "MissingCenter",
			role:       rbac.RoleProduction,
			body:       `{"input_product_id":1,"input_warehouse_id":1,"input_quantity":"1","output_product_id":2,"output_warehouse_id":2,"output_quantity":"1"}`,
			setupMock:  func(m *production.MockProductionService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "NotEnoughYarn",
			role: rbac.RoleProduction,
			body: recordBody,
			setupMock: func(m *production.MockProductionService) {
				m.EXPECT().
					RecordProduction(gomock.Any(), gomock.Any()).
					Return(production.Log{}, shared.InsufficientStock(1, 1, dec("100"), dec("250")))
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "ManagerCannotRecord",
			role:       rbac.RoleManager,
			body:       recordBody,
			setupMock:  func(m *production.MockProductionService) {},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := production.NewMockProductionService(ctrl)
			tt.setupMock(svc)

			rec := call(newRouter(svc), http.MethodPost, "/api/v1/production/logs", tt.role, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_RecordProductionMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := production.NewMockProductionService(ctrl)
	svc.EXPECT().
		RecordProduction(gomock.Any(), gomock.Any()).
		Return(production.Log{InputProductID: 1, InputQuantity: dec("1250"), OutputProductID: 2, OutputQuantity: dec("1200.75")}, nil)

	rec := call(newRouter(svc), http.MethodPost, "/api/v1/production/logs", rbac.RoleProduction, recordBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "converted 1,250 units of product 1 into 1,200.75 units of product 2", body["message"])
}

func TestHandler_TransitionOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := production.NewMockProductionService(ctrl)
	svc.EXPECT().
		TransitionOrder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, in production.TransitionInput) (production.Order, error) {
			assert.Equal(t, int64(4), in.OrderID)
			assert.Equal(t, production.OrderCompleted, in.Target)
			require.True(t, in.ActualQuantity.Valid)
			assert.True(t, in.ActualQuantity.Decimal.Equal(dec("4870")))
			return production.Order{ID: 4, Status: production.OrderCompleted, ActualQuantity: in.ActualQuantity}, nil
		})

	router := newRouter(svc)
	rec := call(router, http.MethodPost, "/api/v1/production/orders/4/status", rbac.RoleProduction,
		`{"status":"completed","actual_quantity":"4870"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(router, http.MethodPost, "/api/v1/production/orders/4/status", rbac.RoleProduction, `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ListLogsDates(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := production.NewMockProductionService(ctrl)
	svc.EXPECT().
		ListLogs(gomock.Any(), production.LogFilter{
			CenterID: 1,
			From:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			To:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		}).
		Return(nil, nil)

	router := newRouter(svc)
	rec := call(router, http.MethodGet, "/api/v1/production/logs?center_id=1&from=2024-03-01&to=2024-03-31", rbac.RoleManager, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(router, http.MethodGet, "/api/v1/production/logs?from=March", rbac.RoleManager, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_OrdersRequireRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := production.NewMockProductionService(ctrl)

	rec := call(newRouter(svc), http.MethodPost, "/api/v1/production/orders", rbac.RoleCashier, `{"center_id":1,"product_id":2,"planned_quantity":"10"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(newRouter(svc), http.MethodGet, "/api/v1/production/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
