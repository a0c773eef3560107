package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
)

// Memory is an in-process Store used for local runs and tests. Filters and
// ordering follow Firestore: documents missing a filtered or ordered field
// are left out, and mixed types sort by type class.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]map[string]any)}
}

func (m *Memory) Get(_ context.Context, collection, id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{ID: id, Data: copyMap(doc)}, nil
}

func (m *Memory) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	m.collection(collection)[id] = copyMap(data)
	return id, nil
}

func (m *Memory) Set(_ context.Context, collection, id string, data map[string]any) error {
	if id == "" {
		return fmt.Errorf("set %s: empty document id", collection)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(collection)[id] = copyMap(data)
	return nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	Apply(doc, fields)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

func (m *Memory) Run(_ context.Context, collection string, q Query) ([]Snapshot, error) {
	m.mu.RLock()
	rows := make([]Snapshot, 0, len(m.collections[collection]))
	for id, doc := range m.collections[collection] {
		if matchesAll(id, doc, q) {
			rows = append(rows, Snapshot{ID: id, Data: copyMap(doc)})
		}
	}
	m.mu.RUnlock()

	order := q.OrderBy
	if len(order) == 0 || order[len(order)-1].Field != DocumentID {
		order = append(append([]query.OrderBy(nil), order...), query.OrderBy{Field: DocumentID})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return compareRows(rows[i], rows[j], order) < 0
	})

	if len(q.StartAfter) > 0 {
		rows = filterCursor(rows, q.OrderBy, q.StartAfter, 1)
	}
	if len(q.EndBefore) > 0 {
		rows = filterCursor(rows, q.OrderBy, q.EndBefore, -1)
	}

	if q.Limit > 0 && len(rows) > q.Limit {
		if q.LimitToLast {
			rows = rows[len(rows)-q.Limit:]
		} else {
			rows = rows[:q.Limit]
		}
	}
	return rows, nil
}

// Len returns the number of documents in a collection.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func (m *Memory) collection(name string) map[string]map[string]any {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string]map[string]any)
		m.collections[name] = c
	}
	return c
}

func field(id string, doc map[string]any, path string) (any, bool) {
	if path == DocumentID {
		return id, true
	}
	return Lookup(doc, path)
}

func matchesAll(id string, doc map[string]any, q Query) bool {
	for _, w := range q.Where {
		v, ok := field(id, doc, w.Field)
		if !ok || !matches(v, w.Operator, w.Value) {
			return false
		}
	}
	for _, o := range q.OrderBy {
		if _, ok := field(id, doc, o.Field); !ok {
			return false
		}
	}
	return true
}

func matches(v any, op query.Operator, want any) bool {
	switch op {
	case query.Equal:
		return equalValues(v, want)
	case query.NotEqual:
		return v != nil && !equalValues(v, want)
	case query.Less, query.LessOrEqual, query.Greater, query.GreaterOrEqual:
		if class(v) != class(want) || v == nil {
			return false
		}
		c := compareValues(v, want)
		switch op {
		case query.Less:
			return c < 0
		case query.LessOrEqual:
			return c <= 0
		case query.Greater:
			return c > 0
		}
		return c >= 0
	case query.ArrayContains:
		if class(v) != classArray {
			return false
		}
		return containsValue(toSlice(v), want)
	case query.ArrayContainsAny:
		if class(v) != classArray {
			return false
		}
		for _, w := range toSlice(want) {
			if containsValue(toSlice(v), w) {
				return true
			}
		}
		return false
	case query.In:
		return containsValue(toSlice(want), v)
	case query.NotIn:
		return v != nil && !containsValue(toSlice(want), v)
	}
	return false
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if equalValues(item, v) {
			return true
		}
	}
	return false
}

func compareRows(a, b Snapshot, order []query.OrderBy) int {
	for _, o := range order {
		av, _ := field(a.ID, a.Data, o.Field)
		bv, _ := field(b.ID, b.Data, o.Field)
		c := compareValues(av, bv)
		if o.Descending() {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// filterCursor keeps rows strictly after (sign 1) or strictly before (sign -1)
// the cursor position.
func filterCursor(rows []Snapshot, order []query.OrderBy, values []any, sign int) []Snapshot {
	out := rows[:0:0]
	for _, row := range rows {
		c := 0
		for i, o := range order {
			if i >= len(values) {
				break
			}
			v, _ := field(row.ID, row.Data, o.Field)
			c = compareValues(v, values[i])
			if o.Descending() {
				c = -c
			}
			if c != 0 {
				break
			}
		}
		if c*sign > 0 {
			out = append(out, row)
		}
	}
	return out
}

// Apply merges update fields into doc the way Update does: dotted paths
// create intermediate maps and Increment values add to the current number.
func Apply(doc map[string]any, fields map[string]any) {
	for path, v := range fields {
		parts := SplitPath(path)
		parent := doc
		for _, p := range parts[:len(parts)-1] {
			next, ok := parent[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				parent[p] = next
			}
			parent = next
		}
		leaf := parts[len(parts)-1]
		if inc, ok := v.(Increment); ok {
			parent[leaf] = addNumber(parent[leaf], int64(inc))
			continue
		}
		parent[leaf] = copyValue(v)
	}
}

func addNumber(current any, n int64) any {
	switch v := current.(type) {
	case float64:
		return v + float64(n)
	case float32:
		return float64(v) + float64(n)
	case nil:
		return n
	}
	if class(current) == classNumber {
		return int64(toFloat(current)) + n
	}
	return n
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	}
	return v
}
