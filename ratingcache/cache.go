// Package ratingcache caches per-id secondary rating data so that many rows
// needing the same owner's ratings share one network call.
package ratingcache

import (
	"context"
	"sync"

	"github.com/golang/glog"

	ratehub "github.com/ratehub/ratehub-go"
	"github.com/ratehub/ratehub-go/api"
)

// FetchFunc retrieves the ratings for one id from the backend.
type FetchFunc func(ctx context.Context, id string) ([]api.Rating, error)

// Entry is the cached rating data for one owner or store id.
type Entry struct {
	ID      string
	Ratings []api.Rating
	Count   int
}

// Average returns the mean of the entry's valid rating values, rounded to
// one decimal place. Empty or all-invalid entries yield 0.0.
func (e *Entry) Average() float64 {
	values := make([]ratehub.RatingValue, 0, len(e.Ratings))
	for _, r := range e.Ratings {
		values = append(values, r.Value)
	}
	return ratehub.CalculateAverageRating(values)
}

// call is one in-flight fetch shared by every concurrent caller of its key.
type call struct {
	done  chan struct{}
	entry *Entry
	err   error
}

// Cache is a keyed single-flight cache. A completed entry, including the
// empty sentinel cached after a failed fetch, is returned without a network
// call. At most one fetch per key is ever in flight.
type Cache struct {
	fetch FetchFunc

	mu      sync.Mutex
	entries map[string]*Entry
	pending map[string]*call
}

// New creates a Cache over the given fetch function.
func New(fetch FetchFunc) (*Cache, error) {
	if fetch == nil {
		return nil, ratehub.ErrInvalidConfig
	}
	return &Cache{
		fetch:   fetch,
		entries: make(map[string]*Entry),
		pending: make(map[string]*call),
	}, nil
}

// GetOrFetch returns the entry for id, fetching it at most once. Concurrent
// callers for a pending key await the single in-flight fetch. A failed fetch
// caches an empty entry so the key never stays pending; the error is
// reported to the callers that awaited that fetch, and there is no automatic
// retry.
func (c *Cache) GetOrFetch(ctx context.Context, id string) (*Entry, error) {
	c.mu.Lock()
	if entry, ok := c.entries[id]; ok {
		c.mu.Unlock()
		return entry, nil
	}
	if inflight, ok := c.pending[id]; ok {
		c.mu.Unlock()
		select {
		case <-inflight.done:
			return inflight.entry, inflight.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	inflight := &call{done: make(chan struct{})}
	c.pending[id] = inflight
	c.mu.Unlock()

	ratings, err := c.fetch(ctx, id)

	entry := &Entry{ID: id}
	if err != nil {
		glog.Warningf("ratingcache: fetch %s: %v", id, err)
		inflight.err = err
	} else {
		entry.Ratings = append([]api.Rating(nil), ratings...)
		entry.Count = len(ratings)
	}
	inflight.entry = entry

	c.mu.Lock()
	c.entries[id] = entry
	delete(c.pending, id)
	c.mu.Unlock()

	close(inflight.done)
	return entry, inflight.err
}

// Peek returns the completed entry for id without fetching.
func (c *Cache) Peek(id string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	return entry, ok
}

// Forget drops the entry for id so the next request refetches it, e.g.
// after a mutation invalidated the cached ratings.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, id)
}
