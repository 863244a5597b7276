// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides the shared test infrastructure: an in-memory
// post store for the listing and admin handlers, and the PostgreSQL/Valkey
// helpers of the auth flow integration tests, which skip when either
// service is unavailable.
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"aslipolitik/internal/category"
	"aslipolitik/internal/database"
	"aslipolitik/internal/listing"
	"aslipolitik/internal/models"
	"aslipolitik/internal/newsletter"
	"aslipolitik/internal/notify"
	"aslipolitik/internal/posts"
	"aslipolitik/internal/store"
)

// memPosts is an in-memory post table serving both the listing queries
// and the admin CRUD operations.
type memPosts struct {
	mu      sync.Mutex
	posts   []models.Post
	queries atomic.Int32
	fail    error
}

func (m *memPosts) Query(_ context.Context, f listing.Filter, offset, limit int) (listing.Page, error) {
	m.queries.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return listing.Page{}, m.fail
	}

	var matched []models.Post
	for _, p := range m.posts {
		switch f.Kind {
		case listing.FilterCategory:
			if p.Category != f.Category {
				continue
			}
		case listing.FilterText:
			q := strings.ToLower(f.Text)
			if !strings.Contains(strings.ToLower(p.Title+"\n"+p.Excerpt+"\n"+p.Content), q) {
				continue
			}
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PublishedAt.Equal(matched[j].PublishedAt) {
			return matched[i].PublishedAt.After(matched[j].PublishedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	page := listing.Page{Items: []models.Post{}, Total: len(matched)}
	if offset < len(matched) {
		end := min(offset+limit, len(matched))
		page.Items = append(page.Items, matched[offset:end]...)
	}
	return page, nil
}

func (m *memPosts) find(match func(models.Post) bool) *models.Post {
	for i := range m.posts {
		if match(m.posts[i]) {
			cp := m.posts[i]
			return &cp
		}
	}
	return nil
}

func (m *memPosts) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(p models.Post) bool { return p.Slug == slug }), m.fail
}

func (m *memPosts) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(p models.Post) bool { return p.ID == id }), m.fail
}

func (m *memPosts) Insert(_ context.Context, f models.PostFields) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(func(p models.Post) bool { return p.Slug == f.Slug }) != nil {
		return nil, store.ErrSlugTaken
	}
	p := models.Post{ID: uuid.New(), PublishedAt: time.Now(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	setFields(&p, f)
	m.posts = append(m.posts, p)
	return &p, nil
}

func (m *memPosts) Update(_ context.Context, id uuid.UUID, f models.PostFields) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.posts {
		if m.posts[i].ID == id {
			setFields(&m.posts[i], f)
			cp := m.posts[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memPosts) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.posts {
		if m.posts[i].ID == id {
			m.posts = append(m.posts[:i], m.posts[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memPosts) SlugExists(_ context.Context, slug string, exclude uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.find(func(p models.Post) bool { return p.Slug == slug && p.ID != exclude })
	return p != nil, nil
}

func setFields(p *models.Post, f models.PostFields) {
	p.Title, p.Slug, p.Excerpt, p.Content = f.Title, f.Slug, f.Excerpt, f.Content
	p.Category, p.AuthorName, p.FeaturedImage = f.Category, f.AuthorName, f.FeaturedImage
	if f.PublishedAt != nil {
		p.PublishedAt = *f.PublishedAt
	}
	p.UpdatedAt = time.Now()
}

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// seedPosts adds n posts; post i is published i hours before baseTime and
// categories alternate between West and National.
func seedPosts(m *memPosts, n int) {
	for i := 0; i < n; i++ {
		code := category.GeopoliticsWest
		if i%2 == 1 {
			code = category.IndiaNational
		}
		m.posts = append(m.posts, models.Post{
			ID:          uuid.New(),
			Title:       "Post " + strconv.Itoa(i),
			Slug:        "post-" + strconv.Itoa(i),
			Excerpt:     "excerpt " + strconv.Itoa(i),
			Content:     "# Heading " + strconv.Itoa(i) + "\n\nBody with **bold** text.",
			Category:    code,
			AuthorName:  "Admin",
			PublishedAt: baseTime.Add(-time.Duration(i) * time.Hour),
		})
	}
}

// unitEnv wires the public and admin handlers to one memPosts.
type unitEnv struct {
	posts  *memPosts
	public *Public
	admin  *Admin
}

func newUnitEnv(t *testing.T, objects posts.ObjectStore) *unitEnv {
	t.Helper()
	mp := &memPosts{}
	svc := posts.NewService(mp, posts.Options{Objects: objects})
	return &unitEnv{
		posts: mp,
		public: NewPublic(
			listing.NewViews(mp, listing.ViewsConfig{PageSize: listing.PublicPageSize}),
			svc,
			newsletter.NewService(notify.NewWebhook(notify.HookSubscribe, "", 0)),
			false,
		),
		admin: NewAdmin(listing.NewViews(mp, listing.ViewsConfig{PageSize: listing.AdminPageSize}), svc),
	}
}

// decodeBody decodes a recorder's JSON body into a map.
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "aslipolitik")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "aslipolitik")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a client on DB 15 for handler tests.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "session:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})
	return client
}
