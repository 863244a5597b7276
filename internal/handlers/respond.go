package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"aslipolitik/internal/apperr"
	"aslipolitik/internal/listing"
	"aslipolitik/internal/posts"
	"aslipolitik/internal/respond"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// decodeJSON reads the request body into dst. It writes a 400 and returns
// false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respond.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			respond.Error(w, http.StatusBadRequest, "request body is empty")
		default:
			respond.Error(w, http.StatusBadRequest, "malformed JSON body")
		}
		return false
	}
	return true
}

// writeError maps a domain error onto a status code and JSON body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if fields, ok := apperr.FieldsOf(err); ok {
		respond.Invalid(w, fields)
		return
	}

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "post not found")
	case errors.Is(err, listing.ErrLoadFailed):
		slog.Error("listing load failed", "path", r.URL.Path, "error", err)
		respond.Error(w, http.StatusServiceUnavailable, "posts could not be loaded, please try again")
	case errors.Is(err, posts.ErrStorageDisabled):
		respond.Error(w, http.StatusServiceUnavailable, "image uploads are not configured")
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the answer.
		slog.Debug("request cancelled", "path", r.URL.Path)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
