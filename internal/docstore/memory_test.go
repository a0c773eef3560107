package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/metrics"
)

func ids(rows []Snapshot) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func seed(t *testing.T, m *Memory) {
	t.Helper()
	ctx := context.Background()
	docs := map[string]map[string]any{
		"a": {"name": "ALPHA", "level": int64(1), "tags": []any{"x", "y"}, "toDelete": map[string]any{"status": true}},
		"b": {"name": "BRAVO", "level": int64(2), "tags": []any{"y"}},
		"c": {"name": "CHARLIE", "level": 2.0, "toDelete": map[string]any{"status": false}},
		"d": {"level": int64(3)},
	}
	for id, d := range docs {
		require.NoError(t, m.Set(ctx, "items", id, d))
	}
}

func TestMemory_GetSetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "items", "missing")
	require.True(t, errors.Is(err, ErrNotFound))
	require.True(t, errors.Is(m.Update(ctx, "items", "missing", map[string]any{"a": 1}), ErrNotFound))

	id, err := m.Add(ctx, "items", map[string]any{"name": "x", "counts": map[string]any{"MATH": int64(1)}})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, m.Update(ctx, "items", id, map[string]any{
		"counts.MATH":    Increment(2),
		"counts.PHYSICS": Increment(-1),
		"total":          Increment(1),
		"name":           nil,
	}))
	snap, err := m.Get(ctx, "items", id)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"MATH": int64(3), "PHYSICS": int64(-1)}, snap.Data["counts"])
	assert.Equal(t, int64(1), snap.Data["total"])
	v, ok := snap.Data["name"]
	assert.True(t, ok)
	assert.Nil(t, v)

	// returned data is a copy
	snap.Data["total"] = int64(100)
	again, _ := m.Get(ctx, "items", id)
	assert.Equal(t, int64(1), again.Data["total"])

	require.NoError(t, m.Delete(ctx, "items", id))
	require.NoError(t, m.Delete(ctx, "items", id))
	assert.Equal(t, 0, m.Len("items"))
}

func TestMemory_Filters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seed(t, m)

	cases := []struct {
		where query.Where
		want  []string
	}{
		{query.Filter("level", query.Equal, 2), []string{"b", "c"}},
		{query.Filter("level", query.NotEqual, 2), []string{"a", "d"}},
		{query.Filter("level", query.Greater, int64(1)), []string{"b", "c", "d"}},
		{query.Filter("name", query.GreaterOrEqual, "B"), []string{"b", "c"}},
		{query.Filter("name", query.Less, "B"), []string{"a"}},
		{query.Filter("tags", query.ArrayContains, "y"), []string{"a", "b"}},
		{query.Filter("tags", query.ArrayContainsAny, []any{"x", "z"}), []string{"a"}},
		{query.Filter("name", query.In, []string{"ALPHA", "CHARLIE"}), []string{"a", "c"}},
		{query.Filter("name", query.NotIn, []string{"ALPHA"}), []string{"b", "c"}},
		{query.Filter("toDelete.status", query.Equal, false), []string{"c"}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s %s", tc.where.Field, tc.where.Operator), func(t *testing.T) {
			rows, err := m.Run(ctx, "items", Query{Where: []query.Where{tc.where}})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(rows))
		})
	}
}

func TestMemory_OrderExcludesMissingFieldsAndBreaksTiesByID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seed(t, m)

	rows, err := m.Run(ctx, "items", Query{OrderBy: []query.OrderBy{query.Sort("name", query.Desc)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(rows))

	rows, err = m.Run(ctx, "items", Query{OrderBy: []query.OrderBy{query.Sort("level", query.Asc)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(rows))
}

func TestMemory_CursorsAndLimitToLast(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 6; i++ {
		require.NoError(t, m.Set(ctx, "items", fmt.Sprintf("id%d", i), map[string]any{"n": int64(i / 2)}))
	}
	order := []query.OrderBy{{Field: "n"}, {Field: DocumentID}}

	rows, err := m.Run(ctx, "items", Query{OrderBy: order, StartAfter: []any{int64(1), "id2"}, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"id3", "id4"}, ids(rows))

	rows, err = m.Run(ctx, "items", Query{OrderBy: order, EndBefore: []any{int64(2), "id4"}, Limit: 2, LimitToLast: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"id2", "id3"}, ids(rows))
}

func TestInstrumented_CountsOperationsAndErrors(t *testing.T) {
	ctx := context.Background()
	s := NewInstrumented(NewMemory(), "memory-test")

	before := testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("memory-test", "items", "get"))
	_, err := s.Get(ctx, "items", "nope")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("memory-test", "items", "get")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.StoreErrors.WithLabelValues("memory-test", "items", "get")))

	require.Error(t, s.Set(ctx, "items", "", map[string]any{}))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreErrors.WithLabelValues("memory-test", "items", "set")))
}
