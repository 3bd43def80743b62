package sales

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=sales

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/textile-erp/internal/platform/httpx"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// IdempotencyHeader carries an optional client supplied replay key.
const IdempotencyHeader = "Idempotency-Key"

// InvoiceService is the behaviour the HTTP layer needs from Service.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, input CreateInvoiceInput) (CreateInvoiceResult, error)
	CancelInvoice(ctx context.Context, id, actorID int64) (Invoice, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error)
}

// Handler manages sales endpoints.
type Handler struct {
	logger  *slog.Logger
	service InvoiceService
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service InvoiceService, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermInvoiceView))
		r.Get("/invoices", h.listInvoices)
		r.Get("/invoices/{id}", h.showInvoice)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermInvoiceCreate))
		r.Post("/invoices", h.createInvoice)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermInvoiceCancel))
		r.Post("/invoices/{id}/cancel", h.cancelInvoice)
	})
}

type invoiceItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type createInvoiceRequest struct {
	CustomerID    int64                `json:"customer_id" validate:"required,gt=0"`
	BranchID      int64                `json:"branch_id" validate:"required,gt=0"`
	PaymentMethod PaymentMethod        `json:"payment_method" validate:"required,oneof=cash credit"`
	Items         []invoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, Item{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	result, err := h.service.CreateInvoice(r.Context(), CreateInvoiceInput{
		CustomerID:     req.CustomerID,
		BranchID:       req.BranchID,
		PaymentMethod:  req.PaymentMethod,
		Items:          items,
		IssuedBy:       shared.ActorID(r.Context()),
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		h.fail(w, "create invoice failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message":        fmt.Sprintf("invoice %s issued", result.InvoiceNumber),
		"invoice_id":     result.InvoiceID,
		"invoice_number": result.InvoiceNumber,
		"credit_id":      result.CreditID,
	})
}

func (h *Handler) cancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.CancelInvoice(r.Context(), id, shared.ActorID(r.Context()))
	if err != nil {
		h.fail(w, "cancel invoice failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("invoice %s worth %s cancelled and its stock returned",
			inv.Number, shared.FormatAmount(inv.TotalAmount)),
		"invoice": inv,
	})
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.fail(w, "get invoice failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	customerID, err := httpx.QueryInt64(r, "customer_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit, err := httpx.QueryInt64(r, "limit")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	invoices, err := h.service.ListInvoices(r.Context(), ListFilter{
		CustomerID: customerID,
		Status:     Status(r.URL.Query().Get("status")),
		Limit:      int(limit),
	})
	if err != nil {
		h.fail(w, "list invoices failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}
