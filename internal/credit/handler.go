package credit

//go:generate mockgen -source=handler.go -destination=handler_mock.go -package=credit

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

// CreditService is the behaviour the HTTP layer needs from Service.
type CreditService interface {
	RecordPayment(ctx context.Context, input PaymentInput) (PaymentResult, error)
	GetCredit(ctx context.Context, id int64) (Sale, error)
	ListOutstanding(ctx context.Context, customerID int64) ([]Sale, error)
	Aging(ctx context.Context, asOf time.Time) (AgingReport, error)
	Reconcile(ctx context.Context) ([]Discrepancy, error)
}

// Handler exposes credit endpoints.
type Handler struct {
	logger  *slog.Logger
	service CreditService
	rbac    rbac.Middleware
}

// NewHandler constructs credit handler.
func NewHandler(logger *slog.Logger, service CreditService, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers credit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermCreditView))
		r.Get("/sales", h.listOutstanding)
		r.Get("/sales/{id}", h.getCredit)
		r.Get("/aging", h.aging)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermCreditPayment))
		r.Post("/sales/{id}/payments", h.recordPayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermCreditAudit))
		r.Get("/reconciliation", h.reconcile)
	})
}

type paymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,max=32"`
	Reference string          `json:"reference" validate:"max=128"`
	PaidAt    string          `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req paymentRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var paidAt time.Time
	if req.PaidAt != "" {
		paidAt, _ = time.Parse(time.DateOnly, req.PaidAt)
	}
	result, err := h.service.RecordPayment(r.Context(), PaymentInput{
		CreditID:   id,
		Amount:     req.Amount,
		Method:     req.Method,
		Reference:  req.Reference,
		RecordedBy: shared.ActorID(r.Context()),
		PaidAt:     paidAt,
	})
	if err != nil {
		h.fail(w, "record payment failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("payment of %s recorded, outstanding balance %s",
			shared.FormatAmount(result.Payment.Amount), shared.FormatAmount(result.Sale.Balance())),
		"payment":     result.Payment,
		"credit_sale": result.Sale,
	})
}

func (h *Handler) getCredit(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.GetCredit(r.Context(), id)
	if err != nil {
		h.fail(w, "get credit failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) listOutstanding(w http.ResponseWriter, r *http.Request) {
	customerID, err := httpx.QueryInt64(r, "customer_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sales, err := h.service.ListOutstanding(r.Context(), customerID)
	if err != nil {
		h.fail(w, "list outstanding credit failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"credit_sales": sales})
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	var asOf time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.RespondError(w, shared.Invalid("as_of", "must be YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}
	report, err := h.service.Aging(r.Context(), asOf)
	if err != nil {
		h.fail(w, "credit aging failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	discrepancies, err := h.service.Reconcile(r.Context())
	if err != nil {
		h.fail(w, "reconcile credit failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"balanced":      len(discrepancies) == 0,
		"discrepancies": discrepancies,
	})
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}
