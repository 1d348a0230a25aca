package entity

import (
	"math"
	"strings"
)

const (
	DefaultRowsPerPage = 10
	MaxRowsPerPage     = 500
)

// PageRequest selects one 1-based page of a filtered, sorted listing.
type PageRequest struct {
	Page        int    `json:"page"`
	RowsPerPage int    `json:"rowsPerPage"`
	Search      string `json:"search,omitempty"`
	SortBy      string `json:"sortBy,omitempty"`
	Descending  bool   `json:"descending"`
}

// Normalize clamps page into [1, math.MaxInt/rowsPerPage], defaults and caps
// rowsPerPage, and trims the search text so that a blank search means no filter.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.RowsPerPage <= 0 {
		p.RowsPerPage = DefaultRowsPerPage
	}
	if p.RowsPerPage > MaxRowsPerPage {
		p.RowsPerPage = MaxRowsPerPage
	}
	if maxPage := math.MaxInt / p.RowsPerPage; p.Page > maxPage {
		p.Page = maxPage
	}
	p.Search = strings.TrimSpace(p.Search)
	p.SortBy = strings.TrimSpace(p.SortBy)
	return p
}

// Offset is the number of filtered rows skipped before this page.
func (p PageRequest) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.RowsPerPage
}

// PageResponse is one page of rows plus the size of the filtered set.
type PageResponse[T any] struct {
	Rows        []T   `json:"rows"`
	Page        int   `json:"page"`
	RowsPerPage int   `json:"rowsPerPage"`
	TotalCount  int64 `json:"totalCount"`
}

// Query is what a repository receives. Limit <= 0 means no limit.
type Query struct {
	Search     string
	SortBy     string
	Descending bool
	Offset     int
	Limit      int
}
