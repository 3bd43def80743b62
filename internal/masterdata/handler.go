package masterdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/textile-erp/internal/platform/httpx"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// Handler exposes read-only reference data to the dashboard.
type Handler struct {
	logger  *slog.Logger
	catalog *Catalog
	rbac    rbac.Middleware
}

// NewHandler constructs the master data handler.
func NewHandler(logger *slog.Logger, catalog *Catalog, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, catalog: catalog, rbac: rbac}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermInventoryView, shared.PermInvoiceView, shared.PermProductionView))
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/warehouses", h.listWarehouses)
		r.Get("/customers/{id}", h.getCustomer)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermJobsRun))
		r.Post("/cache/invalidate", h.invalidate)
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		h.fail(w, "list products failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		h.fail(w, "get product failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.catalog.Warehouses(r.Context())
	if err != nil {
		h.fail(w, "list warehouses failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"warehouses": warehouses})
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	customer, err := h.catalog.Customer(r.Context(), id)
	if err != nil {
		h.fail(w, "get customer failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	version, err := h.catalog.Invalidate(r.Context())
	if err != nil {
		h.fail(w, "invalidate catalog cache failed", err)
		return
	}
	h.logger.Info("catalog cache invalidated", slog.Int64("version", version))
	httpx.JSON(w, http.StatusOK, map[string]any{"version": version})
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}
