package listing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"aslipolitik/internal/category"
	"aslipolitik/internal/models"
)

// fakeStore is an in-memory ContentStore that counts calls and can hold a
// call until the test releases it.
type fakeStore struct {
	mu    sync.Mutex
	posts []models.Post
	err   error
	// gates maps a filter key to a channel the call waits on before answering.
	gates map[string]chan struct{}
	// entered receives the filter key of every call as it starts.
	entered chan string

	// snapshotFirst makes a call read the posts before waiting on its gate.
	snapshotFirst bool
	// afterQuery, when set, runs after the n-th call has computed its page.
	afterQuery func(n int)

	calls atomic.Int32
}

func newFakeStore(posts []models.Post) *fakeStore {
	return &fakeStore{posts: posts, gates: make(map[string]chan struct{})}
}

func (s *fakeStore) gate(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[key] = ch
	return ch
}

func (s *fakeStore) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeStore) Query(ctx context.Context, f Filter, offset, limit int) (Page, error) {
	n := int(s.calls.Add(1))

	// A snapshot taken here models a database statement that sees the rows
	// as they were when it started, however long it then runs.
	var snap []models.Post
	if s.snapshotFirst {
		s.mu.Lock()
		snap = append([]models.Post(nil), s.posts...)
		s.mu.Unlock()
	}

	if s.entered != nil {
		s.entered <- f.Key()
	}

	s.mu.Lock()
	gate := s.gates[f.Key()]
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Page{}, ctx.Err()
		}
	}

	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return Page{}, err
	}
	if !s.snapshotFirst {
		snap = s.posts
	}
	page := pageOf(snap, f, offset, limit)
	after := s.afterQuery
	s.mu.Unlock()

	if after != nil {
		after(n)
	}
	return page, nil
}

func pageOf(posts []models.Post, f Filter, offset, limit int) Page {
	var matched []models.Post
	for _, p := range posts {
		if matches(f, p) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PublishedAt.Equal(matched[j].PublishedAt) {
			return matched[i].PublishedAt.After(matched[j].PublishedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	total := len(matched)
	if offset >= total {
		return Page{Items: nil, Total: total}
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return Page{Items: matched[offset:end], Total: total}
}

func (s *fakeStore) add(p models.Post) {
	s.mu.Lock()
	s.posts = append(s.posts, p)
	s.mu.Unlock()
}

// dropNewest removes the n most recently published posts.
func (s *fakeStore) dropNewest(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.Slice(s.posts, func(i, j int) bool { return s.posts[i].PublishedAt.After(s.posts[j].PublishedAt) })
	s.posts = append([]models.Post(nil), s.posts[n:]...)
}

func (s *fakeStore) callCount() int {
	return int(s.calls.Load())
}

func matches(f Filter, p models.Post) bool {
	switch f.Kind {
	case FilterCategory:
		return p.Category == f.Category
	case FilterText:
		q := strings.ToLower(f.Text)
		return strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Excerpt), q) ||
			strings.Contains(strings.ToLower(p.Content), q)
	default:
		return true
	}
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// makePosts builds n posts; post i is published i hours before baseTime, so
// post 0 is the newest. Categories alternate between West and National.
func makePosts(n int) []models.Post {
	posts := make([]models.Post, n)
	for i := range posts {
		code := category.GeopoliticsWest
		if i%2 == 1 {
			code = category.IndiaNational
		}
		posts[i] = models.Post{
			ID:          uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", i+1)),
			Title:       fmt.Sprintf("Post %d", i),
			Slug:        fmt.Sprintf("post-%d", i),
			Excerpt:     "excerpt",
			Content:     "body",
			Category:    code,
			AuthorName:  "Admin",
			PublishedAt: baseTime.Add(-time.Duration(i) * time.Hour),
		}
	}
	return posts
}
