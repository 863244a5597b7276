// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package listing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"aslipolitik/internal/metrics"
	"aslipolitik/internal/models"
)

// Outcome describes what happened to one Load call.
type Outcome struct {
	Result Result
	// Seq is the sequence number issued to the load.
	Seq uint64
	// Published is false when a newer load was issued before this one
	// finished; Result is then stale and has not replaced the snapshot.
	Published bool
	// Dropped is true when a debounced search was superseded before it
	// reached the store. Result is zero in that case.
	Dropped bool
}

// Controller serves the listing of one view. Loads may overlap; only the
// most recently issued one may replace the published snapshot.
type Controller struct {
	store ContentStore

	seq atomic.Uint64

	mu           sync.Mutex
	current      Result
	currentSeq   uint64
	hasCurrent   bool
	lastActivity time.Time
}

// NewController returns a controller reading from store.
func NewController(store ContentStore) *Controller {
	return &Controller{store: store, lastActivity: time.Now()}
}

// Load fetches the page described by q and publishes it if no newer load
// was issued meanwhile. A stale result is returned with Published=false and
// no error. A store failure returns a *LoadError and leaves the snapshot
// untouched; it is not retried.
func (c *Controller) Load(ctx context.Context, q PageQuery) (Outcome, error) {
	seq := c.issue()

	if q.Filter.IsEmptySearch() {
		res := emptyResult(q)
		metrics.ListingLoads.WithLabelValues(metrics.LoadEmpty).Inc()
		return Outcome{Result: res, Seq: seq, Published: c.publish(seq, res)}, nil
	}

	res, err := c.fetch(ctx, q)
	if err != nil {
		metrics.ListingLoads.WithLabelValues(metrics.LoadFailed).Inc()
		return Outcome{Seq: seq}, &LoadError{Query: q, Err: err}
	}

	published := c.publish(seq, res)
	if published {
		metrics.ListingLoads.WithLabelValues(metrics.LoadPublished).Inc()
	} else {
		metrics.ListingLoads.WithLabelValues(metrics.LoadStale).Inc()
	}
	return Outcome{Result: res, Seq: seq, Published: published}, nil
}

// maxClampReads bounds the re-reads of fetch when rows keep disappearing
// between reads.
const maxClampReads = 3

// fetch issues one store round trip and, when the requested page lies past
// the end, reads the clamped last page. Rows deleted between reads can move
// the last page again, so the read repeats until the window it computes
// describes the offset it just read.
func (c *Controller) fetch(ctx context.Context, q PageQuery) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	offset := (q.Page - 1) * q.Size
	p, err := c.store.Query(ctx, q.Filter, offset, q.Size)
	if err != nil {
		return Result{}, err
	}

	w := ComputeWindow(p.Total, q.Page, q.Size)
	for i := 0; i < maxClampReads && w.TotalPages > 0 && w.Offset != offset; i++ {
		offset = w.Offset
		p, err = c.store.Query(ctx, q.Filter, offset, q.Size)
		if err != nil {
			return Result{}, err
		}
		w = ComputeWindow(p.Total, w.Page, q.Size)
	}

	page := w.Page
	if w.TotalPages > 0 && w.Offset != offset {
		// Still moving after every re-read: describe the page actually read.
		page = offset/q.Size + 1
	}

	items := p.Items
	if items == nil {
		items = []models.Post{}
	}
	if len(items) > q.Size {
		items = items[:q.Size]
	}
	return Result{
		Items:      items,
		TotalCount: p.Total,
		Page:       page,
		PageSize:   q.Size,
		TotalPages: w.TotalPages,
		Filter:     q.Filter,
	}, nil
}

func (c *Controller) issue() uint64 {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
	return c.seq.Add(1)
}

// publish installs res as the snapshot if seq is still the latest issued.
func (c *Controller) publish(seq uint64, res Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq.Load() || seq <= c.currentSeq {
		return false
	}
	c.current = res
	c.currentSeq = seq
	c.hasCurrent = true
	return true
}

// Current returns the published snapshot and the sequence number of the
// load that produced it. ok is false before the first publish.
func (c *Controller) Current() (res Result, seq uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.currentSeq, c.hasCurrent
}

// LatestSeq returns the sequence number of the most recently issued load.
func (c *Controller) LatestSeq() uint64 {
	return c.seq.Load()
}

func (c *Controller) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}
