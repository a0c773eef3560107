// Package docstore is the document database port used by the repositories,
// with Firestore, MongoDB and in-memory adapters.
package docstore

import (
	"context"
	"errors"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
)

// ErrNotFound is returned by Get and Update when the document does not exist.
var ErrNotFound = errors.New("document not found")

// DocumentID is the pseudo field naming the document key in filters and sort
// clauses. Adapters sort on it as the final tie-break.
const DocumentID = "__name__"

// Snapshot is a stored document. Data never contains the id.
type Snapshot struct {
	ID   string
	Data map[string]any
}

// Increment is an Update value that adds n to the stored number instead of
// replacing it. A missing field is treated as zero.
type Increment int64

// Query is a compiled read. OrderBy already contains every sort key the
// cursor values refer to, in order; StartAfter and EndBefore hold one value
// per OrderBy entry.
type Query struct {
	Where       []query.Where
	OrderBy     []query.OrderBy
	Limit       int
	LimitToLast bool
	StartAfter  []any
	EndBefore   []any
}

// Store is a collection-oriented document database.
//
// Update keys may be dotted paths into nested maps. A nil value stores null.
// Delete does not fail when the document is already gone.
type Store interface {
	Get(ctx context.Context, collection, id string) (Snapshot, error)
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Run(ctx context.Context, collection string, q Query) ([]Snapshot, error)
}

// FromQuery copies a descriptor into a compiled query without cursors.
func FromQuery(q query.Query) Query {
	return Query{
		Where:   append([]query.Where(nil), q.Where...),
		OrderBy: append([]query.OrderBy(nil), q.OrderBy...),
		Limit:   q.Limit,
	}
}
