// Package repository binds one collection of a document store to one record
// type and implements the shared read, paging and mutation operations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/storage"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
)

var (
	// ErrIDNotProvided is returned by id-based mutations called without an id.
	ErrIDNotProvided = errors.New("bad-request/id-not-provided")
	// ErrNoConstraints is returned by bulk mutations called without filters.
	ErrNoConstraints = errors.New("no-constraints")
	// ErrNoFileStore is returned by file operations when none is configured.
	ErrNoFileStore = errors.New("no file store configured")
)

// Option configures a Repository.
type Option[T any] func(*Repository[T])

// Omit lists top-level keys that are never written, such as snapshots
// attached on read.
func Omit[T any](keys ...string) Option[T] {
	return func(r *Repository[T]) {
		r.omit = append(r.omit, keys...)
	}
}

// WithFiles attaches a file store. fileOf returns the file reference held by
// a record, or "" when it has none; DeleteMarked removes those files.
func WithFiles[T any](files storage.FileStore, fileOf func(*entity.Record[T]) string) Option[T] {
	return func(r *Repository[T]) {
		r.files = files
		r.fileOf = fileOf
	}
}

// Repository is the generic collection repository.
type Repository[T any] struct {
	store      docstore.Store
	collection string
	files      storage.FileStore
	fileOf     func(*entity.Record[T]) string
	omit       []string
	log        *logger.Logger
}

func New[T any](store docstore.Store, collection string, opts ...Option[T]) *Repository[T] {
	r := &Repository[T]{
		store:      store,
		collection: collection,
		log:        logger.With("repository/" + collection),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Collection returns the collection name.
func (r *Repository[T]) Collection() string { return r.collection }

func (r *Repository[T]) fromSnapshot(s docstore.Snapshot) (*entity.Record[T], error) {
	m := make(map[string]any, len(s.Data)+1)
	for k, v := range s.Data {
		m[k] = v
	}
	m[entity.KeyID] = s.ID
	rec, err := entity.FromMap[T](m)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", r.collection, s.ID, err)
	}
	return rec, nil
}

func (r *Repository[T]) fromSnapshots(rows []docstore.Snapshot) ([]*entity.Record[T], error) {
	out := make([]*entity.Record[T], 0, len(rows))
	for _, row := range rows {
		rec, err := r.fromSnapshot(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// document is the map written for rec: its ToMap without omitted keys.
func (r *Repository[T]) document(rec *entity.Record[T]) map[string]any {
	m := rec.ToMap()
	for _, k := range r.omit {
		delete(m, k)
	}
	return m
}

// GetAll returns every document of the collection.
func (r *Repository[T]) GetAll(ctx context.Context) ([]*entity.Record[T], error) {
	rows, err := r.store.Run(ctx, r.collection, docstore.Query{})
	if err != nil {
		return nil, err
	}
	return r.fromSnapshots(rows)
}

// GetOne returns the document with the given id or docstore.ErrNotFound.
func (r *Repository[T]) GetOne(ctx context.Context, id string) (*entity.Record[T], error) {
	if id == "" {
		return nil, ErrIDNotProvided
	}
	snap, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	return r.fromSnapshot(snap)
}

// Query runs a descriptor against the collection.
func (r *Repository[T]) Query(ctx context.Context, q query.Query) ([]*entity.Record[T], error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	rows, err := r.store.Run(ctx, r.collection, docstore.FromQuery(q))
	if err != nil {
		return nil, err
	}
	return r.fromSnapshots(rows)
}

// First returns the first match of q, or nil when nothing matches.
func (r *Repository[T]) First(ctx context.Context, q query.Query) (*entity.Record[T], error) {
	q.Limit = 1
	recs, err := r.Query(ctx, q)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}

// CreateOne stores a new record. Any id already set on rec is ignored; the
// returned record carries the store-assigned id.
func (r *Repository[T]) CreateOne(ctx context.Context, rec *entity.Record[T]) (*entity.Record[T], error) {
	doc := r.document(rec)
	id, err := r.store.Add(ctx, r.collection, doc)
	if err != nil {
		return nil, err
	}
	return r.fromSnapshot(docstore.Snapshot{ID: id, Data: doc})
}

// UpdateOne merges fields into the stored document and refreshes updated.
// Only the given keys are written; a nil value clears the field. The result
// is the previously stored document overlaid with fields, not a fresh read.
func (r *Repository[T]) UpdateOne(ctx context.Context, id string, fields entity.Fields) (*entity.Record[T], error) {
	if id == "" {
		return nil, ErrIDNotProvided
	}
	upd, err := r.updateFields(fields)
	if err != nil {
		return nil, err
	}
	snap, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	if err := r.store.Update(ctx, r.collection, id, upd); err != nil {
		return nil, err
	}
	docstore.Apply(snap.Data, upd)
	return r.fromSnapshot(snap)
}

func (r *Repository[T]) updateFields(fields entity.Fields) (map[string]any, error) {
	upd := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		if k == entity.KeyID {
			continue
		}
		if _, ok := v.(docstore.Increment); ok {
			upd[k] = v
			continue
		}
		n, err := entity.NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("update %s field %q: %w", r.collection, k, err)
		}
		upd[k] = n
	}
	for _, k := range r.omit {
		delete(upd, k)
	}
	upd[entity.KeyUpdated] = entity.NowISOString()
	return upd, nil
}

// UpdateQuery applies UpdateOne to every document matching q. It refuses a
// query without filters. Documents are updated one by one; a failure stops
// the loop and leaves earlier updates in place.
func (r *Repository[T]) UpdateQuery(ctx context.Context, q query.Query, fields entity.Fields) ([]*entity.Record[T], error) {
	if !q.HasFilters() {
		return nil, ErrNoConstraints
	}
	matches, err := r.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Record[T], 0, len(matches))
	for _, m := range matches {
		rec, err := r.UpdateOne(ctx, m.ID, fields)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// CreateOrUpdate updates rec when it has an id and creates it otherwise.
// Updates write the record's stored map, so its falsy fields are left alone.
func (r *Repository[T]) CreateOrUpdate(ctx context.Context, rec *entity.Record[T]) (*entity.Record[T], error) {
	if rec.ID == "" {
		return r.CreateOne(ctx, rec)
	}
	fields := entity.Fields(r.document(rec))
	delete(fields, entity.KeyCreated)
	return r.UpdateOne(ctx, rec.ID, fields)
}

// SetOne replaces the whole document with rec. Without an id it creates a
// new document instead.
func (r *Repository[T]) SetOne(ctx context.Context, rec *entity.Record[T]) (*entity.Record[T], error) {
	if rec.ID == "" {
		return r.CreateOne(ctx, rec)
	}
	doc := r.document(rec)
	if err := r.store.Set(ctx, r.collection, rec.ID, doc); err != nil {
		return nil, err
	}
	return r.fromSnapshot(docstore.Snapshot{ID: rec.ID, Data: doc})
}

// SoftDeleteOne flags the document as deleted by userEmail. It stays
// recoverable until the flag is confirmed.
func (r *Repository[T]) SoftDeleteOne(ctx context.Context, id, userEmail string) (*entity.Record[T], error) {
	return r.UpdateOne(ctx, id, entity.Fields{
		entity.KeyToDelete: &entity.ToDelete{Status: true, UserEmail: userEmail},
	})
}

// ConfirmDeleteOne marks a flagged document as eligible for DeleteMarked.
func (r *Repository[T]) ConfirmDeleteOne(ctx context.Context, id, userEmail string) (*entity.Record[T], error) {
	return r.UpdateOne(ctx, id, entity.Fields{
		entity.KeyToDelete: &entity.ToDelete{Status: false, UserEmail: userEmail},
	})
}

// RestoreOne clears the soft-delete marker.
func (r *Repository[T]) RestoreOne(ctx context.Context, id string) (*entity.Record[T], error) {
	return r.UpdateOne(ctx, id, entity.Fields{entity.KeyToDelete: nil})
}

// RestoreAll clears the marker of every recoverable document, optionally
// only those flagged by userEmail.
func (r *Repository[T]) RestoreAll(ctx context.Context, userEmail string) ([]*entity.Record[T], error) {
	where := []query.Where{query.Filter("toDelete.status", query.Equal, true)}
	if userEmail != "" {
		where = append(where, query.Filter("toDelete.userEmail", query.Equal, userEmail))
	}
	return r.UpdateQuery(ctx, query.Query{Where: where}, entity.Fields{entity.KeyToDelete: nil})
}

// Marked returns the documents flagged for deletion with the given status.
func (r *Repository[T]) Marked(ctx context.Context, status bool) ([]*entity.Record[T], error) {
	return r.Query(ctx, query.Query{Where: []query.Where{query.Filter("toDelete.status", query.Equal, status)}})
}

// DeleteOne removes a document and returns its last state, or nil when it
// did not exist.
func (r *Repository[T]) DeleteOne(ctx context.Context, id string) (*entity.Record[T], error) {
	if id == "" {
		return nil, ErrIDNotProvided
	}
	snap, err := r.store.Get(ctx, r.collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec, err := r.fromSnapshot(snap)
	if err != nil {
		return nil, err
	}
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteQuery removes every document matching q, one at a time. It refuses
// a query without filters.
func (r *Repository[T]) DeleteQuery(ctx context.Context, q query.Query) ([]*entity.Record[T], error) {
	if !q.HasFilters() {
		return nil, ErrNoConstraints
	}
	matches, err := r.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Record[T], 0, len(matches))
	for _, m := range matches {
		rec, err := r.DeleteOne(ctx, m.ID)
		if err != nil {
			return out, err
		}
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// DeleteMarked hard-deletes every document whose deletion was confirmed
// (toDelete.status false) together with its file. Failures on individual
// documents or files are logged and skipped; the result lists what was
// actually removed.
func (r *Repository[T]) DeleteMarked(ctx context.Context) ([]*entity.Record[T], error) {
	marked, err := r.Marked(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Record[T], 0, len(marked))
	for _, m := range marked {
		rec, err := r.DeleteOne(ctx, m.ID)
		if err != nil {
			r.log.Errorf("delete %s failed: %v", m.ID, err)
			continue
		}
		if rec == nil {
			continue
		}
		out = append(out, rec)
		if r.fileOf == nil {
			continue
		}
		if err := r.DeleteFile(ctx, r.fileOf(rec)); err != nil {
			r.log.Errorf("delete file of %s failed: %v", m.ID, err)
		}
	}
	if len(out) > 0 {
		r.log.Infof("deleted %d of %d marked documents", len(out), len(marked))
	}
	return out, nil
}

// UploadFile stores a file named name plus the extension of its content type
// and returns its URL.
func (r *Repository[T]) UploadFile(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	if r.files == nil {
		return "", ErrNoFileStore
	}
	if ext := storage.Extension(contentType); ext != "" {
		name += "." + ext
	}
	return r.files.Upload(ctx, name, body, size, contentType)
}

// DeleteFile removes a stored file by URL or path. An empty ref is a no-op.
func (r *Repository[T]) DeleteFile(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	if r.files == nil {
		return ErrNoFileStore
	}
	return r.files.Delete(ctx, ref)
}
