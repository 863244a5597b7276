// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"

	"aslipolitik/internal/category"
)

// Post is a published article. Every listing orders posts by PublishedAt
// descending with ID as the tie breaker.
type Post struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Excerpt       string        `json:"excerpt"`
	Content       string        `json:"content"`
	Category      category.Code `json:"category"`
	AuthorName    string        `json:"author_name"`
	FeaturedImage *string       `json:"featured_image,omitempty"`
	PublishedAt   time.Time     `json:"published_at"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// CategoryLabel returns the display label of the post's category.
func (p *Post) CategoryLabel() string {
	return category.Label(p.Category)
}

// HasImage returns true if the post references a featured image.
func (p *Post) HasImage() bool {
	return p.FeaturedImage != nil && *p.FeaturedImage != ""
}

// PostFields is the editable subset of a post used by admin create and
// update. PublishedAt is optional on update; a nil value keeps the stored
// timestamp.
type PostFields struct {
	Title         string
	Slug          string
	Excerpt       string
	Content       string
	Category      category.Code
	AuthorName    string
	FeaturedImage *string
	PublishedAt   *time.Time
}
