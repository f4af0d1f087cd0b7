// Package query turns untrusted query-string values into validated filter,
// sort, and pagination descriptors, and computes page metadata.
//
// Parsing never fails: malformed input resolves to a safe default instead of
// an error.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Filter restricts a book listing. Nil fields are unset.
type Filter struct {
	Title        *string
	Author       *string
	Publisher    *string
	MinYear      *int
	MaxYear      *int
	MinAvgRating *float64
	MaxAvgRating *float64
	IsRated      *bool
}

// IsZero reports whether no filter fields are set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// NeedsAggregates reports whether the filter has a stage that depends on
// computed rating data and must run after the ratings join.
func (f Filter) NeedsAggregates() bool {
	return f.MinAvgRating != nil || f.MaxAvgRating != nil || f.IsRated != nil
}

// Order is a sort direction.
type Order string

// Sort directions.
const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Sort describes the requested ordering of a book listing.
type Sort struct {
	Field string
	Order Order
}

// sortFields is the allow-list of sortable fields. Anything else falls back
// to "_id".
var sortFields = map[string]bool{
	"_id":               true,
	"bookTitle":         true,
	"bookAuthor":        true,
	"publisher":         true,
	"yearOfPublication": true,
	"isbn":              true,
	"avgRating":         true,
	"createdAt":         true,
	"updatedAt":         true,
}

// Window is a 1-based pagination request.
type Window struct {
	Page    int
	PerPage int
}

// Skip returns the number of items preceding the window.
func (w Window) Skip() int {
	return (w.Page - 1) * w.PerPage
}

// Pagination defaults and bounds.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ParseFilter builds a Filter from query-string values.
// Unparseable values are treated as unset, never rejected.
// A reversed year range is silently swapped so the range is always
// well-formed; the swap is commutative in outcome.
func ParseFilter(values url.Values) Filter {
	f := Filter{
		Title:        parseString(values.Get("title")),
		Author:       parseString(values.Get("author")),
		Publisher:    parseString(values.Get("publisher")),
		MinYear:      parseInt(values.Get("minYear")),
		MaxYear:      parseInt(values.Get("maxYear")),
		MinAvgRating: parseFloat(values.Get("minAvgRating")),
		MaxAvgRating: parseFloat(values.Get("maxAvgRating")),
		IsRated:      parseBool(values.Get("isRated")),
	}

	if f.MinYear != nil && f.MaxYear != nil && *f.MinYear > *f.MaxYear {
		f.MinYear, f.MaxYear = f.MaxYear, f.MinYear
	}

	return f
}

// ParseSort builds a Sort from query-string values.
// Unrecognized sortBy falls back to "_id"; unrecognized sortOrder to asc.
// The requested order is applied as-is for every field, string-valued ones
// included.
func ParseSort(values url.Values) Sort {
	s := Sort{Field: "_id", Order: OrderAsc}

	if field := values.Get("sortBy"); sortFields[field] {
		s.Field = field
	}
	if order := Order(values.Get("sortOrder")); order == OrderAsc || order == OrderDesc {
		s.Order = order
	}

	return s
}

// ParsePagination builds a Window from query-string values, clamping to
// sane bounds.
func ParsePagination(values url.Values) Window {
	w := Window{Page: DefaultPage, PerPage: DefaultPerPage}

	if p := parseInt(values.Get("page")); p != nil && *p >= 1 {
		w.Page = *p
	}
	if pp := parseInt(values.Get("perPage")); pp != nil && *pp >= 1 {
		w.PerPage = min(*pp, MaxPerPage)
	}

	return w
}

func parseString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parseInt(v string) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloat(v string) *float64 {
	if v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &n
}

// parseBool parses only the literal tokens "true"/"false", case-insensitive.
// Anything else is unset, not false.
func parseBool(v string) *bool {
	switch strings.ToLower(v) {
	case "true":
		b := true
		return &b
	case "false":
		b := false
		return &b
	default:
		return nil
	}
}
