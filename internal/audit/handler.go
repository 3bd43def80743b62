package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/textile-erp/internal/platform/httpx"
	"github.com/odyssey-erp/textile-erp/internal/rbac"
	"github.com/odyssey-erp/textile-erp/internal/shared"
)

const (
	exportRateLimit  = 10
	exportRateWindow = time.Minute
)

// TimelineService is the behaviour the handler needs.
type TimelineService interface {
	Timeline(ctx context.Context, filters TimelineFilters) (Result, error)
	Export(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error)
}

// Handler exposes the audit trail over HTTP.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	rbac    rbac.Middleware
}

// NewHandler builds the audit handler.
func NewHandler(logger *slog.Logger, service TimelineService, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers the timeline and its CSV export.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(exportRateLimit, exportRateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit reached")
		}),
	)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermAuditView))
		r.Get("/", h.timeline)
		r.With(limiter).Get("/export.csv", h.export)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if id := shared.ActorID(r.Context()); id > 0 {
		return "user:" + strconv.FormatInt(id, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.fail(w, "load audit timeline", err)
		return
	}
	if result.Rows == nil {
		result.Rows = []TimelineRow{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.fail(w, "export audit timeline", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="audit-%s.csv"`, time.Now().UTC().Format("20060102")))
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"occurred_at", "actor_id", "action", "entity", "entity_id", "meta"})
	for _, row := range rows {
		meta := ""
		if len(row.Meta) > 0 {
			raw, err := json.Marshal(row.Meta)
			if err == nil {
				meta = string(raw)
			}
		}
		_ = cw.Write([]string{
			row.At.UTC().Format(time.RFC3339),
			strconv.FormatInt(row.ActorID, 10),
			row.Action,
			row.Entity,
			row.EntityID,
			meta,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Warn("write audit csv", slog.Any("error", err))
	}
}

func parseFilters(r *http.Request) (TimelineFilters, error) {
	var (
		filters TimelineFilters
		err     error
	)
	if filters.ActorID, err = httpx.QueryInt64(r, "actor_id"); err != nil {
		return filters, err
	}
	page, err := httpx.QueryInt64(r, "page")
	if err != nil {
		return filters, err
	}
	size, err := httpx.QueryInt64(r, "page_size")
	if err != nil {
		return filters, err
	}
	filters.Page, filters.PageSize = int(page), int(size)

	q := r.URL.Query()
	filters.Entity = q.Get("entity")
	filters.EntityID = q.Get("entity_id")
	filters.Action = q.Get("action")
	if raw := q.Get("from"); raw != "" {
		if filters.From, err = time.Parse(time.DateOnly, raw); err != nil {
			return filters, shared.Invalid("from", "must be YYYY-MM-DD")
		}
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return filters, shared.Invalid("to", "must be YYYY-MM-DD")
		}
		// Exclusive upper bound so the whole day is included.
		filters.To = to.AddDate(0, 0, 1)
	}
	return filters, nil
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}
