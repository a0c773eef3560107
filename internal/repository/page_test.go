package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
)

func ranks(recs []*entity.Record[item]) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.Data.Rank
	}
	return out
}

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestList_ForwardAndBackwardPages(t *testing.T) {
	ctx := context.Background()
	r := newRepo(docstore.NewMemory())
	for i := 16; i >= 1; i-- {
		create(t, r, item{Name: fmt.Sprintf("n%02d", i), Rank: i})
	}

	first, err := r.List(ctx, query.PageRequest{OrderBy: "rank"}, nil)
	require.NoError(t, err)
	assert.Equal(t, seq(1, 8), ranks(first.Data))
	require.NotNil(t, first.StartDoc)
	assert.Equal(t, int64(1), first.StartDoc.SortKey)
	assert.Equal(t, int64(8), first.EndDoc.SortKey)

	second, err := r.List(ctx, query.PageRequest{
		OrderBy: "rank",
		LastDoc: [2]*query.Cursor{first.StartDoc, first.EndDoc},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, seq(9, 16), ranks(second.Data))

	third, err := r.List(ctx, query.PageRequest{
		OrderBy: "rank",
		LastDoc: [2]*query.Cursor{second.StartDoc, second.EndDoc},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, third.Data)
	assert.Nil(t, third.StartDoc)
	assert.Nil(t, third.EndDoc)

	back, err := r.List(ctx, query.PageRequest{
		OrderBy:   "rank",
		LastDoc:   [2]*query.Cursor{second.StartDoc, second.EndDoc},
		Direction: query.Backward,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, seq(1, 8), ranks(back.Data))

	before, err := r.List(ctx, query.PageRequest{
		OrderBy:   "rank",
		LastDoc:   [2]*query.Cursor{back.StartDoc, back.EndDoc},
		Direction: query.Backward,
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, before.Data)
	assert.Nil(t, before.StartDoc)
}

func TestList_BackwardWithoutCursorReturnsLastPage(t *testing.T) {
	ctx := context.Background()
	r := newRepo(docstore.NewMemory())
	for i := 1; i <= 10; i++ {
		create(t, r, item{Name: fmt.Sprintf("n%02d", i), Rank: i})
	}
	page, err := r.List(ctx, query.PageRequest{OrderBy: "rank", ItemsPerPage: 4, Direction: query.Backward}, nil)
	require.NoError(t, err)
	assert.Equal(t, seq(7, 10), ranks(page.Data))
}

func TestList_TiesAreBrokenByDocumentID(t *testing.T) {
	ctx := context.Background()
	r := newRepo(docstore.NewMemory())
	for i := 0; i < 6; i++ {
		create(t, r, item{Name: fmt.Sprintf("n%d", i), Rank: 5})
	}

	seen := map[string]bool{}
	req := query.PageRequest{OrderBy: "rank", ItemsPerPage: 2}
	for pages := 0; pages < 3; pages++ {
		page, err := r.List(ctx, req, nil)
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		for _, rec := range page.Data {
			assert.False(t, seen[rec.ID], "row repeated across pages")
			seen[rec.ID] = true
		}
		req.LastDoc = [2]*query.Cursor{page.StartDoc, page.EndDoc}
	}
	assert.Len(t, seen, 6)

	again, err := r.List(ctx, query.PageRequest{OrderBy: "rank", ItemsPerPage: 6}, nil)
	require.NoError(t, err)
	once, err := r.List(ctx, query.PageRequest{OrderBy: "rank", ItemsPerPage: 6}, nil)
	require.NoError(t, err)
	assert.Equal(t, names(again.Data), names(once.Data))
}

func TestList_AppliesConstraintsBeforeCursor(t *testing.T) {
	ctx := context.Background()
	r := newRepo(docstore.NewMemory())
	for i := 1; i <= 12; i++ {
		note := "odd"
		if i%2 == 0 {
			note = "even"
		}
		create(t, r, item{Name: fmt.Sprintf("n%02d", i), Rank: i, Note: note})
	}
	constraints := &query.Query{
		Where:   []query.Where{query.Filter("note", query.Equal, "even")},
		OrderBy: []query.OrderBy{query.Sort("rank", query.Desc)},
	}
	first, err := r.List(ctx, query.PageRequest{OrderBy: "rank", ItemsPerPage: 4}, constraints)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 10, 8, 6}, ranks(first.Data))

	next, err := r.List(ctx, query.PageRequest{
		OrderBy:      "rank",
		ItemsPerPage: 4,
		LastDoc:      [2]*query.Cursor{first.StartDoc, first.EndDoc},
	}, constraints)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, ranks(next.Data))
}

func TestList_CursorFromSortKeyOnly(t *testing.T) {
	ctx := context.Background()
	r := newRepo(docstore.NewMemory())
	for i := 1; i <= 5; i++ {
		create(t, r, item{Name: fmt.Sprintf("n%d", i), Rank: i})
	}
	// cursors echoed back by HTTP clients carry float numbers
	page, err := r.List(ctx, query.PageRequest{
		OrderBy: "rank",
		LastDoc: [2]*query.Cursor{nil, {SortKey: float64(2)}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, ranks(page.Data))
}
