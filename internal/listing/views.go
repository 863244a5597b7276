package listing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MaxViewIDLen bounds client supplied view ids.
const MaxViewIDLen = 64

// View is the listing state of one open browser tab. Navigation within the
// tab (home, category, search, paging) goes through the same controller so a
// newer navigation supersedes an older one still in flight.
type View struct {
	Listing *Controller
	Search  *Search
}

// Views keeps one View per client view id and forgets views that stay idle
// longer than the configured timeout.
type Views struct {
	store    ContentStore
	size     int
	debounce time.Duration
	idle     time.Duration
	max      int

	mu    sync.Mutex
	views map[string]*View
}

// ViewsConfig tunes a Views registry.
type ViewsConfig struct {
	PageSize       int
	SearchDebounce time.Duration
	IdleTimeout    time.Duration
	MaxViews       int
}

// NewViews builds a registry whose controllers all read from store.
func NewViews(store ContentStore, cfg ViewsConfig) *Views {
	if cfg.PageSize < 1 {
		cfg.PageSize = PublicPageSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.MaxViews <= 0 {
		cfg.MaxViews = 10_000
	}
	return &Views{
		store:    store,
		size:     cfg.PageSize,
		debounce: cfg.SearchDebounce,
		idle:     cfg.IdleTimeout,
		max:      cfg.MaxViews,
		views:    make(map[string]*View),
	}
}

// PageSize returns the default page size of the registry's listings.
func (v *Views) PageSize() int {
	return v.size
}

// Get returns the view for id, creating it on first use. An empty or
// oversized id yields a throwaway view that is not remembered.
func (v *Views) Get(id string) *View {
	if id == "" || len(id) > MaxViewIDLen {
		return v.newView()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if view, ok := v.views[id]; ok {
		return view
	}
	if len(v.views) >= v.max {
		v.sweepLocked(time.Now())
	}
	if len(v.views) >= v.max {
		return v.newView()
	}
	view := v.newView()
	v.views[id] = view
	return view
}

// Lookup returns an existing view without creating one.
func (v *Views) Lookup(id string) (*View, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	view, ok := v.views[id]
	return view, ok
}

// Len returns the number of remembered views.
func (v *Views) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views)
}

// Sweep forgets views idle since before now minus the idle timeout and
// returns how many were removed.
func (v *Views) Sweep(now time.Time) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sweepLocked(now)
}

func (v *Views) sweepLocked(now time.Time) int {
	removed := 0
	for id, view := range v.views {
		if now.Sub(view.Listing.idleSince()) > v.idle {
			delete(v.views, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle views every interval until ctx is cancelled.
func (v *Views) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := v.Sweep(now); n > 0 {
				slog.Debug("swept idle listing views", "removed", n)
			}
		}
	}
}

func (v *Views) newView() *View {
	ctrl := NewController(v.store)
	return &View{Listing: ctrl, Search: NewSearch(ctrl, v.size, v.debounce)}
}
