package models

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is a 1-based page selection.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest normalizes page and limit: values below 1 fall back to
// the defaults and limit is capped at MaxLimit.
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset returns the number of rows to skip. It saturates at math.MaxInt
// so a page far past the end still yields an empty result.
func (p PageRequest) Offset() int {
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// PageMeta describes a page of results.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// NewPageMeta builds the metadata for req given the total row count.
func NewPageMeta(req PageRequest, total int64) PageMeta {
	limit := int64(req.Limit)
	return PageMeta{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
}

// UserPage is one page of users.
type UserPage struct {
	Data []*User  `json:"data"`
	Meta PageMeta `json:"meta"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers int64 `json:"totalUsers"`
}
