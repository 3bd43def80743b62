package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/textile-erp/internal/audit"
	"github.com/odyssey-erp/textile-erp/internal/credit"
	"github.com/odyssey-erp/textile-erp/internal/inventory"
	"github.com/odyssey-erp/textile-erp/internal/masterdata"
	"github.com/odyssey-erp/textile-erp/internal/observability"
	"github.com/odyssey-erp/textile-erp/internal/production"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/sales"
	"github.com/odyssey-erp/textile-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	RBACMiddleware     rbac.Middleware
	InventoryHandler   *inventory.Handler
	SalesHandler       *sales.Handler
	CreditHandler      *credit.Handler
	ProductionHandler  *production.Handler
	MasterDataHandler  *masterdata.Handler
	AuditHandler       *audit.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(r *http.Request) error
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		RBAC:    params.RBACMiddleware,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Ready != nil {
			if err := params.Ready(r); err != nil {
				params.Logger.Warn("readiness check failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.InventoryHandler != nil {
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
		}
		if params.SalesHandler != nil {
			r.Route("/sales", params.SalesHandler.MountRoutes)
		}
		if params.CreditHandler != nil {
			r.Route("/credit", params.CreditHandler.MountRoutes)
		}
		if params.ProductionHandler != nil {
			r.Route("/production", params.ProductionHandler.MountRoutes)
		}
		if params.MasterDataHandler != nil {
			r.Route("/masterdata", params.MasterDataHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
