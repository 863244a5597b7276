package notify

import (
	"time"

	"aslipolitik/internal/models"
)

// Hook names.
const (
	HookPostCreated = "post_created"
	HookSubscribe   = "subscribe"
)

// PostCreated is the body sent when a post has been published.
type PostCreated struct {
	Event         string    `json:"event"`
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

// NewPostCreated copies the public fields of p.
func NewPostCreated(p *models.Post) PostCreated {
	return PostCreated{
		Event:         HookPostCreated,
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
