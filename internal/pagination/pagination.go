package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds limit/offset pagination parameters.
type Params struct {
	Limit  int
	Offset int
}

// FromQuery extracts pagination parameters from query values, applying the
// default and maximum limit and clamping negative offsets to zero.
func FromQuery(q url.Values) Params {
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// HasMore reports whether results exist beyond the current page, that is
// offset+limit < total. The comparison is rearranged so huge offsets cannot
// overflow.
func (p Params) HasMore(total int) bool {
	if total <= p.Limit {
		return false
	}
	return p.Offset < total-p.Limit
}

// Window returns the [start, end) slice bounds of the page within total items.
func (p Params) Window(total int) (start, end int) {
	start = p.Offset
	if start > total {
		start = total
	}
	end = start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}

// PageCount returns ceil(total/limit), zero when there is nothing to page.
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Page wraps one page of a listing.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
	Pages   int  `json:"pages"`
}

// NewPage builds the page envelope for items out of total.
func NewPage[T any](items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:   items,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.HasMore(total),
		Pages:   PageCount(total, p.Limit),
	}
}

// Slice returns the page of items described by p.
func Slice[T any](items []T, p Params) []T {
	start, end := p.Window(len(items))
	return items[start:end]
}
