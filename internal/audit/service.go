package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxRange        = 90 * 24 * time.Hour
	maxExportRows   = 5000
)

// Repository reads audit_logs.
type Repository interface {
	Timeline(ctx context.Context, q Query) ([]TimelineRow, error)
}

// Service serves the audit trail written by the ledgers.
type Service struct {
	repo Repository
}

// NewService builds the audit trail service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of entries, newest first.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	filters, err := normalize(filters)
	if err != nil {
		return Result{}, err
	}
	page, size := shared.NormalizePage(filters.Page, filters.PageSize, defaultPageSize, maxPageSize)
	rows, err := s.repo.Timeline(ctx, Query{TimelineFilters: filters, Limit: size + 1, Offset: (page - 1) * size})
	if err != nil {
		return Result{}, err
	}
	paging := shared.NewPagination(page, size, len(rows))
	if paging.HasNext {
		rows = rows[:size]
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns every matching entry up to the export cap.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	filters, err := normalize(filters)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Timeline(ctx, Query{TimelineFilters: filters, Limit: maxExportRows + 1})
	if err != nil {
		return nil, err
	}
	if len(rows) > maxExportRows {
		return nil, shared.Invalid("from", fmt.Sprintf("export is limited to %d rows, narrow the range", maxExportRows))
	}
	return rows, nil
}

func normalize(f TimelineFilters) (TimelineFilters, error) {
	f.Entity = strings.TrimSpace(f.Entity)
	f.EntityID = strings.TrimSpace(f.EntityID)
	f.Action = strings.TrimSpace(f.Action)
	if f.EntityID != "" && f.Entity == "" {
		return f, shared.Invalid("entity", "is required when entity_id is given")
	}
	if !f.From.IsZero() && !f.To.IsZero() {
		if f.To.Before(f.From) {
			return f, shared.Invalid("to", "must not be before from")
		}
		if f.To.Sub(f.From) > maxRange {
			return f, shared.Invalid("to", "range must not exceed 90 days")
		}
	}
	return f, nil
}
