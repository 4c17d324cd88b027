package companies

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	gotFilter ListFilter
	items     []Company
	total     int
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter) ([]Company, int, error) {
	s.gotFilter = filter
	return s.items, s.total, nil
}

func (s *stubRepo) Get(ctx context.Context, id int64) (Company, error) {
	return Company{ID: id}, nil
}

func TestListDefaultsAndPagination(t *testing.T) {
	repo := &stubRepo{items: []Company{{ID: 1, Name: "Acme Phones"}}, total: 45}
	svc := NewService(repo)

	items, pagination, err := svc.List(context.Background(), ListFilter{Search: "  acme "})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "acme", repo.gotFilter.Search)
	assert.Equal(t, 1, repo.gotFilter.Page)
	assert.Equal(t, 20, repo.gotFilter.Limit)
	assert.Equal(t, 3, pagination.TotalPages)
}
