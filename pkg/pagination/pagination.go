package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

// Catalog page sizes. The storefront grid shows twelve products per page.
const (
	DefaultPerPage = 12
	MaxPerPage     = 48
)

// Params selects one page of a listing.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first catalog page.
func DefaultParams() Params {
	return New(1, DefaultPerPage)
}

// New returns params for page with perPage items. A page below 1 becomes 1,
// a non-positive perPage becomes DefaultPerPage and anything above
// MaxPerPage is capped.
func New(page, perPage int) Params {
	if page < 1 {
		page = 1
	}
	switch {
	case perPage <= 0:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return Params{Page: page, PerPage: perPage, Offset: (page - 1) * perPage}
}

// FromRequest reads page and per_page from the request's query string.
func FromRequest(r *http.Request) Params {
	return FromValues(r.URL.Query())
}

// FromValues reads page and per_page from q. Missing or malformed values
// fall back to the defaults.
func FromValues(q url.Values) Params {
	return New(intParam(q, "page"), intParam(q, "per_page"))
}

func intParam(q url.Values, key string) int {
	v, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return 0
	}
	return v
}

// Encode writes the parameters back onto q for a downstream request.
func (p Params) Encode(q url.Values) {
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("per_page", strconv.Itoa(p.PerPage))
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// Result is one page of a listing with enough context to render pager links.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult wraps data as the page described by params. Data is never nil so
// an empty page encodes as [].
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	if data == nil {
		data = []T{}
	}
	pages := TotalPages(totalCount, params.PerPage)

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: pages,
		HasNext:    params.Page < pages,
		HasPrev:    params.Page > 1,
	}
}
