package view

import (
	"context"
	"fmt"
	"sync"

	ratehub "github.com/ratehub/ratehub-go"
)

const defaultPageSize = 10

// Config holds the collection-specific wiring for a View.
type Config[T any] struct {
	// Schema lists the recognized filter fields.
	Schema Schema

	// Key returns a record's unique id.
	Key func(T) string

	// Field returns the value of a named filterable field of a record.
	Field func(T, string) string

	// PageSize is the initial page size. Defaults to 10.
	PageSize int
}

// View owns a fetched collection and derives the filtered, paginated subset
// from it. The derived state is recomputed explicitly on every input change;
// there are no hidden triggers. All methods are safe for concurrent use.
type View[T any] struct {
	mu  sync.Mutex
	cfg Config[T]

	records  []T
	filtered []T
	filters  FilterState
	page     int
	pageSize int

	// generation tags loads so a stale fetch resolving late cannot
	// overwrite newer state.
	generation uint64
}

// New creates a View.
func New[T any](cfg Config[T]) (*View[T], error) {
	if cfg.Key == nil || cfg.Field == nil || len(cfg.Schema) == 0 {
		return nil, ratehub.ErrInvalidConfig
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &View[T]{
		cfg:      cfg,
		filters:  FilterState{},
		pageSize: cfg.PageSize,
	}, nil
}

// BeginLoad starts a load generation and invalidates any in-flight one.
func (v *View[T]) BeginLoad() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.generation++
	return v.generation
}

// CompleteLoad installs fetched records if gen is still the latest
// generation. A superseded load is discarded and reported false; discarding
// is always a no-op on the view's state.
func (v *View[T]) CompleteLoad(gen uint64, records []T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.generation {
		return false
	}
	v.records = append([]T(nil), records...)
	v.page = 0
	v.recomputeLocked(false)
	return true
}

// Load fetches the collection and installs it unless a newer load superseded
// this one while it was in flight. On fetch failure the view is untouched;
// the caller surfaces the error and may re-trigger the load.
func (v *View[T]) Load(ctx context.Context, fetch func(ctx context.Context) ([]T, error)) error {
	gen := v.BeginLoad()
	records, err := fetch(ctx)
	if err != nil {
		return err
	}
	v.CompleteLoad(gen, records)
	return nil
}

// SetRecords replaces the collection directly, invalidating pending loads.
func (v *View[T]) SetRecords(records []T) {
	gen := v.BeginLoad()
	v.CompleteLoad(gen, records)
}

// SetFilter sets one filter field, leaving the others untouched. The page
// resets to 0 when the edit changes the composition of the filtered set.
func (v *View[T]) SetFilter(name, value string) error {
	if _, ok := v.cfg.Schema.field(name); !ok {
		return fmt.Errorf("unknown filter field %q", name)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if value == "" {
		delete(v.filters, name)
	} else {
		v.filters[name] = value
	}
	v.recomputeLocked(true)
	return nil
}

// ClearFilter clears one filter field without touching the others.
func (v *View[T]) ClearFilter(name string) error {
	return v.SetFilter(name, "")
}

// ClearAll resets the filter state to all-empty. The query string becomes
// empty and the page resets.
func (v *View[T]) ClearAll() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.filters = FilterState{}
	v.page = 0
	v.recomputeLocked(false)
}

// ApplyQuery reconstructs the filter state from a URL query string, for
// restoring a view from a navigable URL.
func (v *View[T]) ApplyQuery(raw string) error {
	state, err := v.cfg.Schema.ParseQuery(raw)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.filters = state
	v.recomputeLocked(true)
	return nil
}

// Query serializes the current filter state to a URL query string.
func (v *View[T]) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg.Schema.EncodeQuery(v.filters)
}

// Filters returns a copy of the current filter state.
func (v *View[T]) Filters() FilterState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filters.Clone()
}

// FiltersApplied reports whether any filter field is constrained.
func (v *View[T]) FiltersApplied() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filters.Applied()
}

// SetPage moves to the given page. Pagination-only changes never reset the
// filter state or re-filter the collection.
func (v *View[T]) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if page < 0 {
		page = 0
	}
	v.page = page
}

// Page returns the current page index.
func (v *View[T]) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// SetPageSize changes the page size and resets to the first page.
func (v *View[T]) SetPageSize(size int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if size <= 0 {
		return
	}
	v.pageSize = size
	v.page = 0
}

// PageSize returns the current page size.
func (v *View[T]) PageSize() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageSize
}

// TotalPages returns the number of pages in the filtered set.
func (v *View[T]) TotalPages() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return (len(v.filtered) + v.pageSize - 1) / v.pageSize
}

// Filtered returns a copy of the full filtered sequence.
func (v *View[T]) Filtered() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]T(nil), v.filtered...)
}

// Visible returns the current page slice of the filtered sequence.
func (v *View[T]) Visible() []T {
	v.mu.Lock()
	defer v.mu.Unlock()

	start := v.page * v.pageSize
	if start >= len(v.filtered) {
		return nil
	}
	end := start + v.pageSize
	if end > len(v.filtered) {
		end = len(v.filtered)
	}
	return append([]T(nil), v.filtered[start:end]...)
}

// Records returns a copy of the unfiltered collection.
func (v *View[T]) Records() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]T(nil), v.records...)
}

// ReplaceByID swaps the record with the given id for fresh authoritative
// data, the only in-place mutation path into a held collection. The page is
// kept; the derived view is recomputed.
func (v *View[T]) ReplaceByID(id string, record T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.records {
		if v.cfg.Key(v.records[i]) == id {
			v.records[i] = record
			v.recomputeLocked(false)
			return true
		}
	}
	return false
}

// recomputeLocked refreshes the derived sequence. When the recompute is the
// result of a filter edit and the composition of the filtered set changed,
// the page resets to 0.
func (v *View[T]) recomputeLocked(filterEdit bool) {
	previous := v.filtered
	v.filtered = Filter(v.records, v.filters, v.cfg.Schema, v.cfg.Field)

	if filterEdit && v.compositionChanged(previous, v.filtered) {
		v.page = 0
	}
}

func (v *View[T]) compositionChanged(a, b []T) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if v.cfg.Key(a[i]) != v.cfg.Key(b[i]) {
			return true
		}
	}
	return false
}
