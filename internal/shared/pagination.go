package shared

// Pagination contains metadata for paginated listings fetched with one
// look-ahead row.
type Pagination struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// NormalizePage clamps page and size. size falls back to def and is capped at max.
func NormalizePage(page, size, def, max int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if size > max {
		size = max
	}
	return page, size
}

// NewPagination computes pagination metadata from the number of rows a
// query returned when asked for size+1.
func NewPagination(page, size, fetched int) Pagination {
	p := Pagination{Page: page, PageSize: size, HasNext: fetched > size}
	if page > 1 {
		p.PrevPage = page - 1
	}
	if p.HasNext {
		p.NextPage = page + 1
	}
	return p
}
