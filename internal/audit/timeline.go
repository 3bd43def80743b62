package audit

import (
	"time"

	"github.com/odyssey-erp/textile-erp/internal/shared"
)

// TimelineFilters narrows the audit trail. Zero values are ignored.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Entity   string
	EntityID string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one audit_logs entry.
type TimelineRow struct {
	ID       int64          `json:"id"`
	At       time.Time      `json:"at"`
	ActorID  int64          `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Query is what the repository receives. Limit 0 means unbounded.
type Query struct {
	TimelineFilters
	Limit  int
	Offset int
}

// Result wraps one page of the timeline.
type Result struct {
	Rows   []TimelineRow     `json:"rows"`
	Paging shared.Pagination `json:"paging"`
}
