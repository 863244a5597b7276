// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aslipolitik/internal/category"
	"aslipolitik/internal/listing"
	"aslipolitik/internal/markdown"
	"aslipolitik/internal/models"
	"aslipolitik/internal/newsletter"
	"aslipolitik/internal/posts"
	"aslipolitik/internal/respond"
	"aslipolitik/internal/viewstate"
)

// Public groups the handlers of the public site: listings, post detail,
// search, newsletter subscription and display preferences.
type Public struct {
	views         *listing.Views
	posts         *posts.Service
	newsletter    *newsletter.Service
	secureCookies bool
}

// NewPublic creates a new Public handler group.
func NewPublic(views *listing.Views, postService *posts.Service, nl *newsletter.Service, secureCookies bool) *Public {
	return &Public{
		views:         views,
		posts:         postService,
		newsletter:    nl,
		secureCookies: secureCookies,
	}
}

// Categories returns the category tree used by the navigation menus.
func (p *Public) Categories(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{"categories": category.Groups()})
}

// ListPosts serves the home listing, optionally narrowed by ?category=.
func (p *Public) ListPosts(w http.ResponseWriter, r *http.Request) {
	f := listing.NoFilter()
	if code := r.URL.Query().Get("category"); code != "" {
		f = listing.CategoryFilter(category.Code(code))
	}
	p.load(w, r, f)
}

// CategoryPosts serves the listing of one category.
func (p *Public) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	p.load(w, r, listing.CategoryFilter(category.Code(chi.URLParam(r, "code"))))
}

func (p *Public) load(w http.ResponseWriter, r *http.Request, f listing.Filter) {
	q, err := listing.NewPageQuery(f, pageParam(r), sizeParam(r), p.views.PageSize())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := p.views.Get(viewID(r)).Listing.Load(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, outcomeBody(out))
}

// Search runs a text search. Each keystroke of the client maps to one call
// with ?q=; an empty query answers an empty listing without touching the
// database.
func (p *Public) Search(w http.ResponseWriter, r *http.Request) {
	out, err := p.views.Get(viewID(r)).Search.Query(r.Context(), r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, outcomeBody(out))
}

// ViewSnapshot returns the listing currently published for a view, i.e.
// the result of the most recent request that was not overtaken.
func (p *Public) ViewSnapshot(w http.ResponseWriter, r *http.Request) {
	view, ok := p.views.Lookup(chi.URLParam(r, "view"))
	if !ok {
		respond.Error(w, http.StatusNotFound, "unknown view")
		return
	}
	res, seq, ok := view.Listing.Current()
	if !ok {
		respond.Error(w, http.StatusNotFound, "nothing loaded yet")
		return
	}
	body := newListingBody(res, seq, true)
	respond.JSON(w, http.StatusOK, map[string]any{
		"listing":    body,
		"latest_seq": view.Listing.LatestSeq(),
	})
}

// postDetail is a full post with its Markdown content rendered.
type postDetail struct {
	*models.Post
	CategoryLabel string `json:"category_label"`
	ContentHTML   string `json:"content_html"`
}

// Post returns one post by slug.
func (p *Public) Post(w http.ResponseWriter, r *http.Request) {
	post, err := p.posts.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	rendered, err := markdown.ToHTML(post.Content)
	if err != nil {
		slog.Warn("render post content", "slug", post.Slug, "error", err)
	}
	respond.JSON(w, http.StatusOK, postDetail{
		Post:          post,
		CategoryLabel: post.CategoryLabel(),
		ContentHTML:   rendered,
	})
}

// Subscribe forwards a newsletter subscription. The mailing-list webhook
// runs in the background; the reader gets an answer at once.
func (p *Public) Subscribe(w http.ResponseWriter, r *http.Request) {
	var sub newsletter.Subscription
	if !decodeJSON(w, r, &sub) {
		return
	}
	if _, err := p.newsletter.Subscribe(sub); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusAccepted, map[string]string{
		"message": "Successfully subscribed! Welcome to Asli Politik!",
	})
}

// Preferences returns the display state stored in the reader's cookies.
func (p *Public) Preferences(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, viewstate.FromRequest(r))
}

// UpdatePreference applies one display action and stores the new state.
func (p *Public) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	next, err := viewstate.FromRequest(r).Apply(viewstate.Action(chi.URLParam(r, "action")))
	if errors.Is(err, viewstate.ErrUnknownAction) {
		respond.Error(w, http.StatusNotFound, "unknown preference action")
		return
	}
	next.Write(w, p.secureCookies)
	respond.JSON(w, http.StatusOK, next)
}
