// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aslipolitik/internal/listing"
	"aslipolitik/internal/posts"
	"aslipolitik/internal/respond"
)

// multipartOverhead is the room left for form boundaries and headers on
// top of the image size limit.
const multipartOverhead = 64 << 10

// Admin groups the post management handlers. Every route is behind
// authentication, 2FA and CSRF middleware.
type Admin struct {
	views *listing.Views
	posts *posts.Service
}

// NewAdmin creates a new Admin handler group. views is the registry of the
// admin table, configured with the admin page size.
func NewAdmin(views *listing.Views, postService *posts.Service) *Admin {
	return &Admin{views: views, posts: postService}
}

// ListPosts serves the admin table, newest first.
func (a *Admin) ListPosts(w http.ResponseWriter, r *http.Request) {
	q, err := listing.NewPageQuery(listing.NoFilter(), pageParam(r), sizeParam(r), a.views.PageSize())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := a.views.Get(viewID(r)).Listing.Load(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, outcomeBody(out))
}

// CreatePost validates and stores a new post. The post-created
// notification is sent in the background and does not affect the answer.
func (a *Admin) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in posts.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	post, _, err := a.posts.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, post)
}

// UpdatePost replaces the fields of an existing post.
func (a *Admin) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	var in posts.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	post, err := a.posts.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}

// DeletePost removes a post.
func (a *Admin) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	if err := a.posts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respond.NoContent(w)
}

// UploadImage stores the multipart field "file" as a featured image and
// returns its public URL.
func (a *Admin) UploadImage(w http.ResponseWriter, r *http.Request) {
	limit := a.posts.MaxImageBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Invalid(w, map[string]string{"image": fmt.Sprintf("must be smaller than %d MB", limit>>20)})
			return
		}
		respond.Error(w, http.StatusBadRequest, "expected a multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Invalid(w, map[string]string{"image": "is required"})
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the size check to fire.
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "could not read the upload")
		return
	}

	url, err := a.posts.UploadImage(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]string{"url": url})
}

func postID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "post not found")
		return uuid.Nil, false
	}
	return id, true
}
