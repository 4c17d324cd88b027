package listview

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct{ ID int64 }

type filter struct{ Status string }

// fakeSource serves total rows split into pages.
type fakeSource struct {
	mu      sync.Mutex
	total   int
	calls   []int
	filters []filter
	err     error
}

func (s *fakeSource) fetch(_ context.Context, f filter, page, limit int) (Page[row], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, page)
	s.filters = append(s.filters, f)
	if s.err != nil {
		return Page[row]{}, s.err
	}
	var items []row
	for i := (page-1)*limit + 1; i <= min(page*limit, s.total); i++ {
		items = append(items, row{ID: int64(i)})
	}
	pages := (s.total + limit - 1) / limit
	return Page[row]{Items: items, Total: s.total, Page: page, Limit: limit, TotalPages: pages}, nil
}

func rowID(r row) int64 { return r.ID }

func TestControllerPagination(t *testing.T) {
	src := &fakeSource{total: 45}
	c := New(src.fetch, rowID, 20, filter{})
	ctx := context.Background()

	assert.Equal(t, StateIdle, c.Snapshot().State)
	require.NoError(t, c.Load(ctx))
	snap := c.Snapshot()
	assert.Equal(t, StateLoaded, snap.State)
	assert.Equal(t, 3, snap.Page.TotalPages)
	assert.True(t, snap.PrevDisabled)
	assert.False(t, snap.NextDisabled)

	require.NoError(t, c.Next(ctx))
	require.NoError(t, c.Next(ctx))
	snap = c.Snapshot()
	assert.Equal(t, 3, snap.Page.Page)
	assert.Len(t, snap.Page.Items, 5)
	assert.False(t, snap.PrevDisabled)
	assert.True(t, snap.NextDisabled)

	// next on the last page is a no-op
	require.NoError(t, c.Next(ctx))
	assert.Equal(t, []int{1, 2, 3}, src.calls)

	require.NoError(t, c.GoTo(ctx, 9))
	assert.Len(t, src.calls, 3)
}

func TestControllerSingleAndEmptyPages(t *testing.T) {
	for _, total := range []int{0, 20} {
		src := &fakeSource{total: total}
		c := New(src.fetch, rowID, 20, filter{})
		require.NoError(t, c.Load(context.Background()))
		snap := c.Snapshot()
		assert.True(t, snap.PrevDisabled, "total %d", total)
		assert.True(t, snap.NextDisabled, "total %d", total)
	}
}

func TestFilterChangeResetsPageAndSelection(t *testing.T) {
	src := &fakeSource{total: 60}
	c := New(src.fetch, rowID, 20, filter{})
	ctx := context.Background()

	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Next(ctx))
	c.Toggle(21)
	c.Toggle(22)
	c.Toggle(999)
	assert.Equal(t, []int64{21, 22}, c.Selected())

	require.NoError(t, c.SetFilter(ctx, filter{Status: "PAID"}))
	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Page.Page)
	assert.Equal(t, filter{Status: "PAID"}, snap.Filter)
	assert.Empty(t, snap.Selected)
	assert.Equal(t, filter{Status: "PAID"}, src.filters[len(src.filters)-1])
}

func TestFailedLoadKeepsRows(t *testing.T) {
	src := &fakeSource{total: 5}
	c := New(src.fetch, rowID, 20, filter{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	src.err = errors.New("network down")
	err := c.Load(ctx)
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.EqualError(t, snap.Err, "network down")
	assert.Len(t, snap.Page.Items, 5)
}

func TestFailedFilterChangeClearsSelection(t *testing.T) {
	src := &fakeSource{total: 5}
	c := New(src.fetch, rowID, 20, filter{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	c.SelectAll()
	require.Len(t, c.Selected(), 5)

	src.err = errors.New("network down")
	require.Error(t, c.SetFilter(ctx, filter{Status: "PAID"}))

	assert.Empty(t, c.Selected())
	snap := c.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Empty(t, snap.Selected)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	fetch := func(ctx context.Context, f filter, page, limit int) (Page[row], error) {
		if f.Status == "slow" {
			close(started)
			<-release
			return Page[row]{Items: []row{{ID: 1}}, Page: 1, TotalPages: 1, Total: 1}, nil
		}
		return Page[row]{Items: []row{{ID: 2}, {ID: 3}}, Page: 1, TotalPages: 1, Total: 2}, nil
	}
	c := New(fetch, rowID, 20, filter{Status: "slow"})
	ctx := context.Background()

	done := make(chan error)
	go func() { done <- c.Load(ctx) }()
	<-started

	require.NoError(t, c.SetFilter(ctx, filter{Status: "fast"}))
	close(release)
	require.NoError(t, <-done)

	snap := c.Snapshot()
	assert.Equal(t, StateLoaded, snap.State)
	assert.Equal(t, []row{{ID: 2}, {ID: 3}}, snap.Page.Items)
}
