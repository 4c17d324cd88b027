// Package listview drives a paginated, filterable list: it tracks the load
// state, keeps only the current page, discards stale responses and owns the
// selection set.
package listview

import (
	"context"
	"sync"
)

// State is the lifecycle of a list view.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateError   State = "error"
)

// Fetcher loads one page for filter.
type Fetcher[T, F any] func(ctx context.Context, filter F, page, limit int) (Page[T], error)

// Snapshot is a consistent copy of the controller state.
type Snapshot[T, F any] struct {
	State        State
	Filter       F
	Page         Page[T]
	Err          error
	PrevDisabled bool
	NextDisabled bool
	Selected     []int64
}

// Controller is safe for concurrent use.
type Controller[T, F any] struct {
	fetch Fetcher[T, F]
	id    func(T) int64
	limit int

	mu       sync.Mutex
	seq      uint64
	state    State
	filter   F
	page     int
	current  Page[T]
	err      error
	selected map[int64]struct{}
}

// New builds a controller. id extracts the selection key of a row.
func New[T, F any](fetch Fetcher[T, F], id func(T) int64, limit int, filter F) *Controller[T, F] {
	if limit <= 0 {
		limit = 20
	}
	return &Controller[T, F]{
		fetch:    fetch,
		id:       id,
		limit:    limit,
		state:    StateIdle,
		filter:   filter,
		page:     1,
		selected: map[int64]struct{}{},
	}
}

// Load fetches the current page.
func (c *Controller[T, F]) Load(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state = StateLoading
	filter, page := c.filter, c.page
	c.mu.Unlock()

	result, err := c.fetch(ctx, filter, page, c.limit)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		// a newer load owns the view
		return nil
	}
	// any reload invalidates the selection, failed or not
	c.selected = map[int64]struct{}{}
	if err != nil {
		c.state = StateError
		c.err = err
		return err
	}
	c.state = StateLoaded
	c.err = nil
	c.current = result
	return nil
}

// SetFilter replaces the filter, returns to page 1 and reloads.
func (c *Controller[T, F]) SetFilter(ctx context.Context, filter F) error {
	c.mu.Lock()
	c.filter = filter
	c.page = 1
	c.mu.Unlock()
	return c.Load(ctx)
}

// GoTo loads page n. Out of range pages are ignored.
func (c *Controller[T, F]) GoTo(ctx context.Context, n int) error {
	c.mu.Lock()
	if n < 1 || (c.current.TotalPages > 0 && n > c.current.TotalPages) {
		c.mu.Unlock()
		return nil
	}
	c.page = n
	c.mu.Unlock()
	return c.Load(ctx)
}

// Next loads the following page when there is one.
func (c *Controller[T, F]) Next(ctx context.Context) error {
	c.mu.Lock()
	if !c.current.HasNext() {
		c.mu.Unlock()
		return nil
	}
	c.page = c.current.Page + 1
	c.mu.Unlock()
	return c.Load(ctx)
}

// Prev loads the previous page when there is one.
func (c *Controller[T, F]) Prev(ctx context.Context) error {
	c.mu.Lock()
	if !c.current.HasPrev() {
		c.mu.Unlock()
		return nil
	}
	c.page = c.current.Page - 1
	c.mu.Unlock()
	return c.Load(ctx)
}

// Toggle flips the selection of id. Ids outside the current page are ignored.
func (c *Controller[T, F]) Toggle(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return
	}
	for _, item := range c.current.Items {
		if c.id(item) == id {
			c.selected[id] = struct{}{}
			return
		}
	}
}

// SelectAll selects every row of the current page.
func (c *Controller[T, F]) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.current.Items {
		c.selected[c.id(item)] = struct{}{}
	}
}

// Selected returns the selected ids in page order.
func (c *Controller[T, F]) Selected() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

func (c *Controller[T, F]) selectedLocked() []int64 {
	out := make([]int64, 0, len(c.selected))
	for _, item := range c.current.Items {
		if _, ok := c.selected[c.id(item)]; ok {
			out = append(out, c.id(item))
		}
	}
	return out
}

// Snapshot returns the current state.
func (c *Controller[T, F]) Snapshot() Snapshot[T, F] {
	c.mu.Lock()
	defer c.mu.Unlock()
	page := c.current
	page.Items = append([]T(nil), c.current.Items...)
	return Snapshot[T, F]{
		State:        c.state,
		Filter:       c.filter,
		Page:         page,
		Err:          c.err,
		PrevDisabled: !c.current.HasPrev(),
		NextDisabled: !c.current.HasNext(),
		Selected:     c.selectedLocked(),
	}
}
