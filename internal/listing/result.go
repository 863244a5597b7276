package listing

import (
	"errors"
	"fmt"

	"aslipolitik/internal/models"
)

// ErrLoadFailed is the sentinel matched by every LoadError.
var ErrLoadFailed = errors.New("listing load failed")

// LoadError reports that the store could not serve a listing. The
// controller's published result is left as it was.
type LoadError struct {
	Query PageQuery
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s page %d: %v", e.Query.Filter.Key(), e.Query.Page, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailed, e.Err}
}

// Result is one completed listing fetch.
type Result struct {
	Items      []models.Post `json:"items"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	Filter     Filter        `json:"-"`
}

// IsEmpty reports whether the listing has no posts at all.
func (r Result) IsEmpty() bool {
	return r.TotalCount == 0
}

// HasNext reports whether a later page exists.
func (r Result) HasNext() bool {
	return r.Page < r.TotalPages
}

// HasPrev reports whether an earlier page exists.
func (r Result) HasPrev() bool {
	return r.Page > 1 && r.TotalPages > 0
}

func emptyResult(q PageQuery) Result {
	return Result{
		Items:      []models.Post{},
		TotalCount: 0,
		Page:       1,
		PageSize:   q.Size,
		TotalPages: 0,
		Filter:     q.Filter,
	}
}
