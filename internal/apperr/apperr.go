// Package apperr holds the error types shared between the domain packages
// and the HTTP layer, which maps each of them to a status code.
package apperr

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound reports that the requested post does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError is a rejected input value. Field names the offending
// input using its JSON name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ValidationErrors collects every rejected field of one submission.
type ValidationErrors []*ValidationError

func (es ValidationErrors) Error() string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Fields returns the field -> message map used in JSON error bodies.
// When a field failed more than once the first message wins.
func (es ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(es))
	for _, e := range es {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// FieldsOf extracts field messages from err if it is (or wraps) a
// ValidationError or ValidationErrors. ok is false for any other error.
func FieldsOf(err error) (fields map[string]string, ok bool) {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many.Fields(), true
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return map[string]string{one.Field: one.Message}, true
	}
	return nil, false
}

// SortedFields returns the field names of a ValidationErrors in order,
// mainly for stable log output.
func (es ValidationErrors) SortedFields() []string {
	names := make([]string, 0, len(es))
	for f := range es.Fields() {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}
