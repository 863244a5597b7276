// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package listing implements the paginated, filterable post listing shared
// by the home page, category pages, search and the admin table.
//
// A listing request is a PageQuery. A Controller turns it into a Result with
// a single store round trip, clamps out-of-range page numbers against the
// total returned by that round trip, and publishes the Result only when no
// newer request has been issued on the same controller in the meantime.
package listing

import (
	"strings"

	"aslipolitik/internal/apperr"
	"aslipolitik/internal/category"
)

// MaxPageSize bounds every PageQuery regardless of what the client asks for.
const MaxPageSize = 100

// Default page sizes for the public site and the admin table.
const (
	PublicPageSize = 9
	AdminPageSize  = 10
)

// FilterKind selects which subset of posts a listing covers.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterCategory
	FilterText
)

func (k FilterKind) String() string {
	switch k {
	case FilterCategory:
		return "category"
	case FilterText:
		return "text"
	default:
		return "none"
	}
}

// Filter restricts a listing. Only the field matching Kind is meaningful.
type Filter struct {
	Kind     FilterKind
	Category category.Code
	Text     string
}

// NoFilter lists every post.
func NoFilter() Filter {
	return Filter{Kind: FilterNone}
}

// CategoryFilter lists the posts of one subcategory.
func CategoryFilter(code category.Code) Filter {
	return Filter{Kind: FilterCategory, Category: code}
}

// TextFilter lists posts whose title, excerpt or content contains q,
// case-insensitively. Surrounding whitespace is not significant.
func TextFilter(q string) Filter {
	return Filter{Kind: FilterText, Text: strings.TrimSpace(q)}
}

// IsEmptySearch reports the "no search yet" state: a text filter without
// any text. Such a listing is empty and never reaches the store.
func (f Filter) IsEmptySearch() bool {
	return f.Kind == FilterText && strings.TrimSpace(f.Text) == ""
}

// Key is a stable textual form of the filter, used in cache keys and logs.
func (f Filter) Key() string {
	switch f.Kind {
	case FilterCategory:
		return "category:" + string(f.Category)
	case FilterText:
		return "text:" + strings.ToLower(strings.TrimSpace(f.Text))
	default:
		return "none"
	}
}

// Validate rejects category filters naming a code outside the taxonomy.
func (f Filter) Validate() error {
	if f.Kind == FilterCategory && !category.Valid(f.Category) {
		return apperr.Invalid("category", "unknown category "+string(f.Category))
	}
	return nil
}

// PageQuery is one listing request. It is built fresh for every navigation
// and never modified afterwards.
type PageQuery struct {
	Filter Filter
	Page   int
	Size   int
}

// NewPageQuery builds a validated query. A page below 1 becomes 1, a size
// below 1 becomes defaultSize, and sizes are capped at MaxPageSize.
func NewPageQuery(f Filter, page, size, defaultSize int) (PageQuery, error) {
	if err := f.Validate(); err != nil {
		return PageQuery{}, err
	}
	if page < 1 {
		page = 1
	}
	if defaultSize < 1 {
		defaultSize = PublicPageSize
	}
	if size < 1 {
		size = defaultSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageQuery{Filter: f, Page: page, Size: size}, nil
}
