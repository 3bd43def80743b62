package inventory

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=inventory

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/platform/httpx"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// InventoryService is the behaviour the HTTP layer needs from Service.
type InventoryService interface {
	Adjust(ctx context.Context, input AdjustInput) (Transaction, error)
	Transfer(ctx context.Context, input TransferInput) (TransferResult, error)
	GetPosition(ctx context.Context, warehouseID, productID int64) (Position, error)
	ListPositions(ctx context.Context, warehouseID int64) ([]Position, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	Reconcile(ctx context.Context) ([]Discrepancy, error)
}

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service InventoryService
	rbac    rbac.Middleware
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service InventoryService, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermInventoryView))
		r.Get("/positions", h.listPositions)
		r.Get("/positions/{warehouseID}/{productID}", h.getPosition)
		r.Get("/transactions", h.listTransactions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermInventoryAdjust))
		r.Post("/adjustments", h.handleAdjustment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermInventoryMove))
		r.Post("/transfers", h.handleTransfer)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermInventoryAudit))
		r.Get("/reconciliation", h.reconcile)
	})
}

type adjustmentRequest struct {
	ProductID   int64           `json:"product_id" validate:"required,gt=0"`
	WarehouseID int64           `json:"warehouse_id" validate:"required,gt=0"`
	Quantity    decimal.Decimal `json:"quantity"`
	Direction   Direction       `json:"direction" validate:"required,oneof=in out"`
	Note        string          `json:"note" validate:"max=500"`
}

type transferRequest struct {
	ProductID       int64           `json:"product_id" validate:"required,gt=0"`
	FromWarehouseID int64           `json:"from_warehouse_id" validate:"required,gt=0"`
	ToWarehouseID   int64           `json:"to_warehouse_id" validate:"required,gt=0,nefield=FromWarehouseID"`
	Quantity        decimal.Decimal `json:"quantity"`
	Note            string          `json:"note" validate:"max=500"`
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	txn, err := h.service.Adjust(r.Context(), AdjustInput{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Direction:   req.Direction,
		Note:        req.Note,
		ActorID:     shared.ActorID(r.Context()),
	})
	if err != nil {
		h.fail(w, "post adjustment failed", err)
		return
	}
	verb := "received into"
	if req.Direction == DirectionOut {
		verb = "written off from"
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("%s units of product %d %s warehouse %d",
			shared.FormatQuantity(req.Quantity), req.ProductID, verb, req.WarehouseID),
		"transaction": txn,
	})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Transfer(r.Context(), TransferInput{
		ProductID:       req.ProductID,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		Quantity:        req.Quantity,
		Note:            req.Note,
		ActorID:         shared.ActorID(r.Context()),
	})
	if err != nil {
		h.fail(w, "post transfer failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("%s units of product %d moved from warehouse %d to warehouse %d",
			shared.FormatQuantity(req.Quantity), req.ProductID, req.FromWarehouseID, req.ToWarehouseID),
		"transfer": result,
	})
}

func (h *Handler) listPositions(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := httpx.QueryInt64(r, "warehouse_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	positions, err := h.service.ListPositions(r.Context(), warehouseID)
	if err != nil {
		h.fail(w, "list positions failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"positions": positions})
}

func (h *Handler) getPosition(w http.ResponseWriter, r *http.Request) {
	warehouseID, err := httpx.IDParam(r, "warehouseID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	productID, err := httpx.IDParam(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pos, err := h.service.GetPosition(r.Context(), warehouseID, productID)
	if err != nil {
		h.fail(w, "get position failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	txns, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		h.fail(w, "list transactions failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	discrepancies, err := h.service.Reconcile(r.Context())
	if err != nil {
		h.fail(w, "reconcile stock failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"balanced":      len(discrepancies) == 0,
		"discrepancies": discrepancies,
	})
}

func parseTransactionFilter(r *http.Request) (TransactionFilter, error) {
	var (
		filter TransactionFilter
		err    error
	)
	if filter.WarehouseID, err = httpx.QueryInt64(r, "warehouse_id"); err != nil {
		return filter, err
	}
	if filter.ProductID, err = httpx.QueryInt64(r, "product_id"); err != nil {
		return filter, err
	}
	limit, err := httpx.QueryInt64(r, "limit")
	if err != nil {
		return filter, err
	}
	filter.Limit = int(limit)
	q := r.URL.Query()
	if raw := q.Get("event_id"); raw != "" {
		if filter.EventID, err = uuid.Parse(raw); err != nil {
			return filter, shared.Invalid("event_id", "must be a UUID")
		}
	}
	if raw := q.Get("from"); raw != "" {
		if filter.From, err = time.Parse(time.DateOnly, raw); err != nil {
			return filter, shared.Invalid("from", "must be YYYY-MM-DD")
		}
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return filter, shared.Invalid("to", "must be YYYY-MM-DD")
		}
		// Set to end of day
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	return filter, nil
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}
