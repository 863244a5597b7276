// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package posts implements the admin operations on posts: validated create,
// update and delete, featured image upload, and the follow-up work every
// change triggers (listing cache invalidation, post-created notification,
// cleanup of replaced images).
package posts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"aslipolitik/internal/apperr"
	"aslipolitik/internal/category"
	"aslipolitik/internal/markdown"
	"aslipolitik/internal/models"
	"aslipolitik/internal/notify"
	"aslipolitik/internal/slug"
	"aslipolitik/internal/store"
	"aslipolitik/internal/validation"
)

const (
	// DefaultAuthor is used when a post is saved without an author name.
	DefaultAuthor = "Admin"

	// generatedExcerptLen bounds excerpts derived from the content.
	generatedExcerptLen = 200

	// maxSlugAttempts bounds the search for a free generated slug.
	maxSlugAttempts = 50
)

// ErrStorageDisabled is returned by UploadImage when no object storage is
// configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// Store is the persistence the service needs; *store.PostStore satisfies it.
type Store interface {
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Insert(ctx context.Context, f models.PostFields) (*models.Post, error)
	Update(ctx context.Context, id uuid.UUID, f models.PostFields) (*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
}

// ObjectStore holds uploaded images; *storage.Client satisfies it.
type ObjectStore interface {
	UploadObject(ctx context.Context, data []byte, filename, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
	KeyFromURL(rawURL string) (string, bool)
}

// Invalidator drops cached listing pages; *cache.ListingCache satisfies it.
type Invalidator interface {
	InvalidateAll(ctx context.Context)
}

// Notifier delivers a payload in the background; *notify.Webhook satisfies it.
type Notifier interface {
	Dispatch(payload any) <-chan error
}

// Options wires the optional collaborators. Nil fields disable the
// corresponding behaviour.
type Options struct {
	Objects       ObjectStore
	Cache         Invalidator
	Notifier      Notifier
	MaxImageBytes int64
}

// Service implements post administration on top of a Store.
type Service struct {
	store         Store
	objects       ObjectStore
	cache         Invalidator
	notifier      Notifier
	maxImageBytes int64
}

// NewService creates a Service.
func NewService(s Store, opts Options) *Service {
	return &Service{
		store:         s,
		objects:       opts.Objects,
		cache:         opts.Cache,
		notifier:      opts.Notifier,
		maxImageBytes: opts.MaxImageBytes,
	}
}

// Input is the admin post form.
type Input struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Slug          string     `json:"slug" validate:"omitempty,max=200,slug"`
	Excerpt       string     `json:"excerpt" validate:"max=500"`
	Content       string     `json:"content" validate:"required"`
	Category      string     `json:"category" validate:"required,category"`
	AuthorName    string     `json:"author_name" validate:"max=100"`
	FeaturedImage string     `json:"featured_image" validate:"omitempty,max=2048,url"`
	PublishedAt   *time.Time `json:"published_at"`
}

func (in *Input) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.Category = strings.TrimSpace(in.Category)
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	in.FeaturedImage = strings.TrimSpace(in.FeaturedImage)
	if strings.TrimSpace(in.Content) == "" {
		in.Content = ""
	}
	if in.AuthorName == "" {
		in.AuthorName = DefaultAuthor
	}
}

// fields validates in and converts it for the store. Slug resolution
// happens separately because it needs the store.
func (in Input) fields() (models.PostFields, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return models.PostFields{}, err
	}

	f := models.PostFields{
		Title:       in.Title,
		Slug:        in.Slug,
		Excerpt:     in.Excerpt,
		Content:     in.Content,
		Category:    category.Code(in.Category),
		AuthorName:  in.AuthorName,
		PublishedAt: in.PublishedAt,
	}
	if f.Excerpt == "" {
		f.Excerpt = markdown.Excerpt(in.Content, generatedExcerptLen)
	}
	if in.FeaturedImage != "" {
		img := in.FeaturedImage
		f.FeaturedImage = &img
	}
	return f, nil
}

// Get returns the post addressed by s, or apperr.ErrNotFound.
func (svc *Service) Get(ctx context.Context, s string) (*models.Post, error) {
	if !slug.Valid(s) {
		return nil, apperr.ErrNotFound
	}
	p, err := svc.store.FindBySlug(ctx, s)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	return p, nil
}

// Create validates in and inserts a new post. After the insert has
// committed the listing cache is cleared and the post-created notification
// is dispatched; the returned channel carries its delivery result and is
// nil when no notifier is configured.
func (svc *Service) Create(ctx context.Context, in Input) (*models.Post, <-chan error, error) {
	f, err := in.fields()
	if err != nil {
		return nil, nil, err
	}
	if f.Slug, err = svc.resolveSlug(ctx, f.Slug, in.Title, uuid.Nil); err != nil {
		return nil, nil, err
	}

	p, err := svc.store.Insert(ctx, f)
	if errors.Is(err, store.ErrSlugTaken) {
		return nil, nil, apperr.Invalid("slug", "is already in use")
	}
	if err != nil {
		return nil, nil, err
	}

	slog.Info("post created", "id", p.ID, "slug", p.Slug, "category", p.Category)
	svc.invalidate(ctx)

	var delivered <-chan error
	if svc.notifier != nil {
		delivered = svc.notifier.Dispatch(notify.NewPostCreated(p))
	}
	return p, delivered, nil
}

// Update replaces the editable fields of post id. Last write wins. When
// the featured image changes, the previous object is removed from storage.
func (svc *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*models.Post, error) {
	f, err := in.fields()
	if err != nil {
		return nil, err
	}

	old, err := svc.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, apperr.ErrNotFound
	}

	if f.Slug, err = svc.resolveSlug(ctx, f.Slug, in.Title, id); err != nil {
		return nil, err
	}

	p, err := svc.store.Update(ctx, id, f)
	if errors.Is(err, store.ErrSlugTaken) {
		return nil, apperr.Invalid("slug", "is already in use")
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}

	slog.Info("post updated", "id", p.ID, "slug", p.Slug)
	svc.invalidate(ctx)
	if old.HasImage() && (!p.HasImage() || *old.FeaturedImage != *p.FeaturedImage) {
		svc.removeImage(ctx, *old.FeaturedImage)
	}
	return p, nil
}

// Delete removes post id and its featured image.
func (svc *Service) Delete(ctx context.Context, id uuid.UUID) error {
	old, err := svc.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if old == nil {
		return apperr.ErrNotFound
	}

	existed, err := svc.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return apperr.ErrNotFound
	}

	slog.Info("post deleted", "id", id, "slug", old.Slug)
	svc.invalidate(ctx)
	if old.HasImage() {
		svc.removeImage(ctx, *old.FeaturedImage)
	}
	return nil
}

// resolveSlug returns the slug to store. A supplied slug must be free; an
// empty one is generated from the title and suffixed until it is free.
func (svc *Service) resolveSlug(ctx context.Context, given, title string, self uuid.UUID) (string, error) {
	if given != "" {
		taken, err := svc.store.SlugExists(ctx, given, self)
		if err != nil {
			return "", err
		}
		if taken {
			return "", apperr.Invalid("slug", "is already in use")
		}
		return given, nil
	}

	base := slug.Generate(title)
	if base == "" {
		return "", apperr.Invalid("slug", "cannot be derived from the title; enter one")
	}

	candidate := base
	for n := 2; n <= maxSlugAttempts+1; n++ {
		taken, err := svc.store.SlugExists(ctx, candidate, self)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = slug.WithSuffix(base, n)
	}
	return "", apperr.Invalid("slug", "no free slug found for this title; enter one")
}

func (svc *Service) invalidate(ctx context.Context) {
	if svc.cache != nil {
		svc.cache.InvalidateAll(context.WithoutCancel(ctx))
	}
}

// removeImage deletes an uploaded image. Failures only leave an orphaned
// object behind and are logged.
func (svc *Service) removeImage(ctx context.Context, url string) {
	if svc.objects == nil {
		return
	}
	key, ok := svc.objects.KeyFromURL(url)
	if !ok {
		return
	}
	if err := svc.objects.DeleteObject(context.WithoutCancel(ctx), key); err != nil {
		slog.Warn("delete replaced image", "key", key, "error", err)
	}
}
