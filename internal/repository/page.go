package repository

import (
	"context"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
)

// List loads one page ordered by p.OrderBy. Static constraints are applied
// first, then the pagination sort key and the id tie-break, then the cursor
// and finally the page size.
func (r *Repository[T]) List(ctx context.Context, p query.PageRequest, constraints *query.Query) (query.Page[*entity.Record[T]], error) {
	var page query.Page[*entity.Record[T]]
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return page, err
	}
	var base query.Query
	if constraints != nil {
		if err := constraints.Validate(); err != nil {
			return page, err
		}
		base = *constraints
	}

	dq := pageQuery(base, p)
	rows, err := r.store.Run(ctx, r.collection, dq)
	if err != nil {
		return page, err
	}
	page.Data, err = r.fromSnapshots(rows)
	if err != nil {
		return page, err
	}
	if len(rows) > 0 {
		page.StartDoc = cursorOf(rows[0], dq.OrderBy, p.OrderBy)
		page.EndDoc = cursorOf(rows[len(rows)-1], dq.OrderBy, p.OrderBy)
	}
	return page, nil
}

func pageQuery(base query.Query, p query.PageRequest) docstore.Query {
	dq := docstore.FromQuery(base)
	hasKey := false
	for _, o := range dq.OrderBy {
		if o.Field == p.OrderBy {
			hasKey = true
		}
	}
	if !hasKey {
		dq.OrderBy = append(dq.OrderBy, query.OrderBy{Field: p.OrderBy, Mode: query.Asc})
	}
	dq.OrderBy = append(dq.OrderBy, query.OrderBy{Field: docstore.DocumentID, Mode: query.Asc})

	if p.Direction == query.Backward {
		if c := p.LastDoc[0]; c != nil {
			dq.EndBefore = cursorValues(c, len(dq.OrderBy))
		}
		dq.LimitToLast = true
	} else if c := p.LastDoc[1]; c != nil {
		dq.StartAfter = cursorValues(c, len(dq.OrderBy))
	}
	dq.Limit = p.ItemsPerPage
	return dq
}

// cursorValues expands a cursor into one value per sort clause. A cursor
// carrying only a sort key acts on the first clause alone.
func cursorValues(c *query.Cursor, clauses int) []any {
	values := c.Values
	if len(values) == 0 {
		values = []any{c.SortKey}
	}
	if len(values) == clauses-1 && c.ID != "" {
		values = append(append([]any(nil), values...), c.ID)
	}
	return values
}

func cursorOf(row docstore.Snapshot, order []query.OrderBy, sortKey string) *query.Cursor {
	c := &query.Cursor{ID: row.ID}
	for _, o := range order {
		if o.Field == docstore.DocumentID {
			continue
		}
		v, _ := docstore.Lookup(row.Data, o.Field)
		c.Values = append(c.Values, v)
	}
	c.SortKey, _ = docstore.Lookup(row.Data, sortKey)
	return c
}
