// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"aslipolitik/internal/category"
	"aslipolitik/internal/listing"
	"aslipolitik/internal/models"
)

// ViewHeader carries the client's view id. The "view" query parameter is
// accepted as a fallback for plain links.
const ViewHeader = "X-View-ID"

func viewID(r *http.Request) string {
	if id := r.Header.Get(ViewHeader); id != "" {
		return id
	}
	return r.URL.Query().Get("view")
}

// pageParam parses ?page=; anything unparsable means page 1.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return n
}

// sizeParam parses ?size=; 0 selects the listing default.
func sizeParam(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return n
}

// postSummary is the listing card of a post.
type postSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Excerpt       string    `json:"excerpt"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"category_label"`
	AuthorName    string    `json:"author_name"`
	FeaturedImage *string   `json:"featured_image,omitempty"`
	PublishedAt   time.Time `json:"published_at"`
}

func summarize(p models.Post) postSummary {
	return postSummary{
		ID:            p.ID.String(),
		Title:         p.Title,
		Slug:          p.Slug,
		Excerpt:       p.Excerpt,
		Category:      string(p.Category),
		CategoryLabel: p.CategoryLabel(),
		AuthorName:    p.AuthorName,
		FeaturedImage: p.FeaturedImage,
		PublishedAt:   p.PublishedAt,
	}
}

type filterBody struct {
	Kind          string `json:"kind"`
	Category      string `json:"category,omitempty"`
	CategoryLabel string `json:"category_label,omitempty"`
	Query         string `json:"query,omitempty"`
}

func describeFilter(f listing.Filter) filterBody {
	b := filterBody{Kind: f.Kind.String()}
	switch f.Kind {
	case listing.FilterCategory:
		b.Category = string(f.Category)
		b.CategoryLabel = category.Label(f.Category)
	case listing.FilterText:
		b.Query = f.Text
	}
	return b
}

// listingBody is the JSON answer of every listing endpoint. Published is
// false when a newer request on the same view overtook this one; the items
// are then stale and the client should keep what it shows.
type listingBody struct {
	Items      []postSummary `json:"items"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	HasNext    bool          `json:"has_next"`
	HasPrev    bool          `json:"has_prev"`
	Filter     filterBody    `json:"filter"`
	Seq        uint64        `json:"seq"`
	Published  bool          `json:"published"`
	Dropped    bool          `json:"dropped,omitempty"`
}

func newListingBody(res listing.Result, seq uint64, published bool) listingBody {
	items := make([]postSummary, 0, len(res.Items))
	for _, p := range res.Items {
		items = append(items, summarize(p))
	}
	return listingBody{
		Items:      items,
		TotalCount: res.TotalCount,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
		HasNext:    res.HasNext(),
		HasPrev:    res.HasPrev(),
		Filter:     describeFilter(res.Filter),
		Seq:        seq,
		Published:  published,
	}
}

func outcomeBody(o listing.Outcome) listingBody {
	if o.Dropped {
		return listingBody{Items: []postSummary{}, Dropped: true}
	}
	return newListingBody(o.Result, o.Seq, o.Published)
}
