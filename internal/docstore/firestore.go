package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
)

// Firestore adapts a Cloud Firestore client.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (f *Firestore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	doc, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("firestore get %s/%s: %w", collection, id, err)
	}
	return Snapshot{ID: doc.Ref.ID, Data: doc.Data()}, nil
}

func (f *Firestore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := f.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("firestore add %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (f *Firestore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := f.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return fmt.Errorf("firestore set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, v := range fields {
		if inc, ok := v.(Increment); ok {
			v = firestore.Increment(int64(inc))
		}
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath(SplitPath(path)), Value: v})
	}
	if _, err := f.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("firestore update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, collection, id string) error {
	if _, err := f.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (f *Firestore) Run(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	fq := f.client.Collection(collection).Query
	for _, w := range q.Where {
		fq = fq.Where(w.Field, string(w.Operator), w.Value)
	}
	for _, o := range q.OrderBy {
		dir := firestore.Asc
		if o.Mode == query.Desc {
			dir = firestore.Desc
		}
		path := o.Field
		if path == DocumentID {
			path = firestore.DocumentID
		}
		fq = fq.OrderBy(path, dir)
	}
	if len(q.StartAfter) > 0 {
		fq = fq.StartAfter(q.StartAfter...)
	}
	if len(q.EndBefore) > 0 {
		fq = fq.EndBefore(q.EndBefore...)
	}
	if q.Limit > 0 {
		if q.LimitToLast {
			fq = fq.LimitToLast(q.Limit)
		} else {
			fq = fq.Limit(q.Limit)
		}
	}

	// limitToLast queries cannot be streamed, GetAll flips them back into order.
	docs, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore query %s: %w", collection, err)
	}
	out := make([]Snapshot, 0, len(docs))
	for _, doc := range docs {
		out = append(out, Snapshot{ID: doc.Ref.ID, Data: doc.Data()})
	}
	return out, nil
}
