package docstore

import (
	"context"
	"errors"

	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/metrics"
)

// Instrumented counts calls and failures of the wrapped store per backend,
// collection and operation. A missing document is not a failure.
type Instrumented struct {
	next    Store
	backend string
}

func NewInstrumented(next Store, backend string) *Instrumented {
	return &Instrumented{next: next, backend: backend}
}

func (s *Instrumented) observe(collection, op string, err error) {
	metrics.StoreOperations.WithLabelValues(s.backend, collection, op).Inc()
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.StoreErrors.WithLabelValues(s.backend, collection, op).Inc()
	}
}

func (s *Instrumented) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	snap, err := s.next.Get(ctx, collection, id)
	s.observe(collection, "get", err)
	return snap, err
}

func (s *Instrumented) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id, err := s.next.Add(ctx, collection, data)
	s.observe(collection, "add", err)
	return id, err
}

func (s *Instrumented) Set(ctx context.Context, collection, id string, data map[string]any) error {
	err := s.next.Set(ctx, collection, id, data)
	s.observe(collection, "set", err)
	return err
}

func (s *Instrumented) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	err := s.next.Update(ctx, collection, id, fields)
	s.observe(collection, "update", err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, collection, id string) error {
	err := s.next.Delete(ctx, collection, id)
	s.observe(collection, "delete", err)
	return err
}

func (s *Instrumented) Run(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	rows, err := s.next.Run(ctx, collection, q)
	s.observe(collection, "query", err)
	return rows, err
}
