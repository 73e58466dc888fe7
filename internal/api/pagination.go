package api

import (
	"net/http"
	"strconv"
)

// PaginationParams is a parsed page request. Offset is derived from Page
// and Limit.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginatedResponse is the envelope for list endpoints.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta describes where a page sits in the full result.
type PaginationMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// ParsePagination reads ?page= and ?limit=. Missing, malformed or
// non-positive values select page 1 and defaultLimit; limit never exceeds
// maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) PaginationParams {
	q := r.URL.Query()
	page := positiveOr(q.Get("page"), 1)
	limit := min(positiveOr(q.Get("limit"), defaultLimit), maxLimit)
	return PaginationParams{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func positiveOr(raw string, def int) int {
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return def
}

// NewPaginatedResponse wraps one page of data. An empty result still
// reports one page.
func NewPaginatedResponse(data interface{}, p PaginationParams, total int) PaginatedResponse {
	pages := 1
	if p.Limit > 0 && total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PaginatedResponse{
		Data: data,
		Pagination: PaginationMeta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: pages,
			HasMore:    p.Page < pages,
		},
	}
}
