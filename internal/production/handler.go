package production

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=production

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/platform/httpx"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// ProductionService is the behaviour the HTTP layer needs from Service.
type ProductionService interface {
	RecordProduction(ctx context.Context, input RecordInput) (Log, error)
	ListLogs(ctx context.Context, filter LogFilter) ([]Log, error)
	CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error)
	TransitionOrder(ctx context.Context, input TransitionInput) (Order, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context, status OrderStatus, limit int) ([]Order, error)
}

// Handler exposes production endpoints.
type Handler struct {
	logger  *slog.Logger
	service ProductionService
	rbac    rbac.Middleware
}

// NewHandler constructs production handler.
func NewHandler(logger *slog.Logger, service ProductionService, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers production routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermProductionView))
		r.Get("/logs", h.listLogs)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermProductionRecord))
		r.Post("/logs", h.recordProduction)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermProductionOrder))
		r.Post("/orders", h.createOrder)
		r.Post("/orders/{id}/status", h.transitionOrder)
	})
}

type recordRequest struct {
	Date              string          `json:"production_date" validate:"omitempty,datetime=2006-01-02"`
	CenterID          int64           `json:"center_id" validate:"required,gt=0"`
	InputProductID    int64           `json:"input_product_id" validate:"required,gt=0"`
	InputWarehouseID  int64           `json:"input_warehouse_id" validate:"required,gt=0"`
	InputQuantity     decimal.Decimal `json:"input_quantity"`
	OutputProductID   int64           `json:"output_product_id" validate:"required,gt=0"`
	OutputWarehouseID int64           `json:"output_warehouse_id" validate:"required,gt=0"`
	OutputQuantity    decimal.Decimal `json:"output_quantity"`
}

type createOrderRequest struct {
	CenterID        int64           `json:"center_id" validate:"required,gt=0"`
	ProductID       int64           `json:"product_id" validate:"required,gt=0"`
	PlannedQuantity decimal.Decimal `json:"planned_quantity"`
}

type transitionRequest struct {
	Status         OrderStatus         `json:"status" validate:"required,oneof=in_progress completed cancelled"`
	ActualQuantity decimal.NullDecimal `json:"actual_quantity"`
}

func (h *Handler) recordProduction(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var date time.Time
	if req.Date != "" {
		date, _ = time.Parse(time.DateOnly, req.Date)
	}
	entry, err := h.service.RecordProduction(r.Context(), RecordInput{
		Date:              date,
		CenterID:          req.CenterID,
		InputProductID:    req.InputProductID,
		InputWarehouseID:  req.InputWarehouseID,
		InputQuantity:     req.InputQuantity,
		OutputProductID:   req.OutputProductID,
		OutputWarehouseID: req.OutputWarehouseID,
		OutputQuantity:    req.OutputQuantity,
		RecordedBy:        shared.ActorID(r.Context()),
	})
	if err != nil {
		h.fail(w, "record production failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("converted %s units of product %d into %s units of product %d",
			shared.FormatQuantity(entry.InputQuantity), entry.InputProductID,
			shared.FormatQuantity(entry.OutputQuantity), entry.OutputProductID),
		"log": entry,
	})
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	var (
		filter LogFilter
		err    error
	)
	if filter.CenterID, err = httpx.QueryInt64(r, "center_id"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit, err := httpx.QueryInt64(r, "limit")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter.Limit = int(limit)
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		if filter.From, err = time.Parse(time.DateOnly, raw); err != nil {
			httpx.RespondError(w, shared.Invalid("from", "must be YYYY-MM-DD"))
			return
		}
	}
	if raw := q.Get("to"); raw != "" {
		if filter.To, err = time.Parse(time.DateOnly, raw); err != nil {
			httpx.RespondError(w, shared.Invalid("to", "must be YYYY-MM-DD"))
			return
		}
	}
	logs, err := h.service.ListLogs(r.Context(), filter)
	if err != nil {
		h.fail(w, "list production logs failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.CreateOrder(r.Context(), CreateOrderInput{
		CenterID:        req.CenterID,
		ProductID:       req.ProductID,
		PlannedQuantity: req.PlannedQuantity,
		CreatedBy:       shared.ActorID(r.Context()),
	})
	if err != nil {
		h.fail(w, "create production order failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("order %s planned for %s units", order.Number, shared.FormatQuantity(order.PlannedQuantity)),
		"order":   order,
	})
}

func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req transitionRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.TransitionOrder(r.Context(), TransitionInput{
		OrderID:        id,
		Target:         req.Status,
		ActualQuantity: req.ActualQuantity,
		ActorID:        shared.ActorID(r.Context()),
	})
	if err != nil {
		h.fail(w, "transition production order failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.fail(w, "get production order failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := httpx.QueryInt64(r, "limit")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	orders, err := h.service.ListOrders(r.Context(), OrderStatus(r.URL.Query().Get("status")), int(limit))
	if err != nil {
		h.fail(w, "list production orders failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}
