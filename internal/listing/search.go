package listing

import (
	"context"
	"sync"
	"time"

	"aslipolitik/internal/metrics"
)

// Search drives a Controller from free-text input. Every keystroke builds a
// fresh text query at page 1; paging through results passes an explicit
// page. With a debounce delay, a keystroke followed by a newer one within
// the delay never reaches the store.
type Search struct {
	ctrl     *Controller
	size     int
	debounce time.Duration

	mu  sync.Mutex
	gen uint64
}

// NewSearch wraps ctrl. size is the page size of search results.
func NewSearch(ctrl *Controller, size int, debounce time.Duration) *Search {
	if size < 1 {
		size = PublicPageSize
	}
	return &Search{ctrl: ctrl, size: size, debounce: debounce}
}

// Query runs a search for raw at page (values below 1 mean page 1).
func (s *Search) Query(ctx context.Context, raw string, page int) (Outcome, error) {
	q, err := NewPageQuery(TextFilter(raw), page, s.size, s.size)
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	if s.debounce > 0 && !q.Filter.IsEmptySearch() {
		t := time.NewTimer(s.debounce)
		select {
		case <-ctx.Done():
			t.Stop()
			return Outcome{}, ctx.Err()
		case <-t.C:
		}

		s.mu.Lock()
		superseded := gen != s.gen
		s.mu.Unlock()
		if superseded {
			metrics.ListingLoads.WithLabelValues(metrics.LoadDropped).Inc()
			return Outcome{Dropped: true}, nil
		}
	}

	return s.ctrl.Load(ctx, q)
}
