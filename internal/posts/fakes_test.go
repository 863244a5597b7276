package posts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"aslipolitik/internal/models"
	"aslipolitik/internal/store"
)

// memStore is an in-memory Store.
type memStore struct {
	mu    sync.Mutex
	posts map[uuid.UUID]*models.Post
	err   error
}

func newMemStore() *memStore {
	return &memStore{posts: make(map[uuid.UUID]*models.Post)}
}

func (m *memStore) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.posts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) Insert(_ context.Context, f models.PostFields) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.posts {
		if p.Slug == f.Slug {
			return nil, store.ErrSlugTaken
		}
	}
	now := time.Now()
	p := &models.Post{ID: uuid.New(), CreatedAt: now, UpdatedAt: now, PublishedAt: now}
	apply(p, f)
	m.posts[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, f models.PostFields) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	apply(p, f)
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.posts[id]
	delete(m.posts, id)
	return ok, nil
}

func (m *memStore) SlugExists(_ context.Context, slug string, exclude uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, p := range m.posts {
		if p.Slug == slug && p.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func apply(p *models.Post, f models.PostFields) {
	p.Title = f.Title
	p.Slug = f.Slug
	p.Excerpt = f.Excerpt
	p.Content = f.Content
	p.Category = f.Category
	p.AuthorName = f.AuthorName
	p.FeaturedImage = f.FeaturedImage
	if f.PublishedAt != nil {
		p.PublishedAt = *f.PublishedAt
	}
}

const objectBase = "https://cdn.example.com/post-images/"

// memObjects is an in-memory ObjectStore.
type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failPut bool
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (o *memObjects) UploadObject(_ context.Context, data []byte, filename, _ string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failPut {
		return "", errors.New("bucket unavailable")
	}
	o.objects["post-images/"+filename] = data
	return objectBase + filename, nil
}

func (o *memObjects) DeleteObject(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	o.deleted = append(o.deleted, key)
	return nil
}

func (o *memObjects) KeyFromURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, objectBase) {
		return "", false
	}
	return "post-images/" + strings.TrimPrefix(rawURL, objectBase), true
}

type countingCache struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCache) InvalidateAll(context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []any
	err      error
}

func (n *recordingNotifier) Dispatch(payload any) <-chan error {
	n.mu.Lock()
	n.payloads = append(n.payloads, payload)
	n.mu.Unlock()
	ch := make(chan error, 1)
	ch <- n.err
	close(ch)
	return ch
}
