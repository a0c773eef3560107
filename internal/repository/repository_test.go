package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/storage"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
)

type item struct {
	Name  string `json:"name,omitempty"`
	Rank  int    `json:"rank,omitempty"`
	Image string `json:"image,omitempty"`
	Note  string `json:"note,omitempty"`
}

func newRepo(store docstore.Store, opts ...Option[item]) *Repository[item] {
	return New[item](store, "items", opts...)
}

func create(t *testing.T, r *Repository[item], data item) *entity.Record[item] {
	t.Helper()
	rec, err := r.CreateOne(context.Background(), entity.New(data))
	require.NoError(t, err)
	return rec
}

func names(recs []*entity.Record[item]) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Data.Name
	}
	return out
}

// spyStore fails nothing and counts every call.
type spyStore struct {
	docstore.Store
	calls int
}

func (s *spyStore) Get(ctx context.Context, c, id string) (docstore.Snapshot, error) {
	s.calls++
	return s.Store.Get(ctx, c, id)
}
func (s *spyStore) Update(ctx context.Context, c, id string, f map[string]any) error {
	s.calls++
	return s.Store.Update(ctx, c, id, f)
}
func (s *spyStore) Run(ctx context.Context, c string, q docstore.Query) ([]docstore.Snapshot, error) {
	s.calls++
	return s.Store.Run(ctx, c, q)
}
func (s *spyStore) Delete(ctx context.Context, c, id string) error {
	s.calls++
	return s.Store.Delete(ctx, c, id)
}

func TestCreateOne_IgnoresCallerIDAndReturnsStoreID(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()
	r := newRepo(mem)

	rec := entity.New(item{Name: "a", Rank: 1})
	rec.ID = "caller-id"
	created, err := r.CreateOne(ctx, rec)
	require.NoError(t, err)
	assert.NotEqual(t, "caller-id", created.ID)
	assert.Equal(t, rec.Created, created.Created)

	snap, err := mem.Get(ctx, "items", created.ID)
	require.NoError(t, err)
	assert.NotContains(t, snap.Data, "id")
	assert.NotContains(t, snap.Data, "image")
	_, err = mem.Get(ctx, "items", "caller-id")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestUpdateOne_MergesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	restore := entity.SetClock(func() time.Time { return fixed })
	defer restore()
	r := newRepo(docstore.NewMemory())
	rec := create(t, r, item{Name: "a", Rank: 3, Note: "keep"})

	entity.SetClock(func() time.Time { return fixed.Add(time.Hour) })
	merged, err := r.UpdateOne(ctx, rec.ID, entity.Fields{"rank": 7, "image": nil})
	require.NoError(t, err)
	assert.Equal(t, 7, merged.Data.Rank)
	assert.Equal(t, "keep", merged.Data.Note)
	assert.Equal(t, rec.Created, merged.Created)
	assert.NotEqual(t, rec.Updated, merged.Updated)

	got, err := r.GetOne(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, merged.Data, got.Data)
	assert.Equal(t, merged.Updated, got.Updated)

	_, err = r.UpdateOne(ctx, "missing", entity.Fields{"rank": 1})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestValidationFailsBeforeAnyStoreCall(t *testing.T) {
	ctx := context.Background()
	spy := &spyStore{Store: docstore.NewMemory()}
	r := newRepo(spy)

	_, err := r.UpdateOne(ctx, "", entity.Fields{"rank": 1})
	assert.ErrorIs(t, err, ErrIDNotProvided)
	_, err = r.SoftDeleteOne(ctx, "", "x@example.com")
	assert.ErrorIs(t, err, ErrIDNotProvided)
	_, err = r.UpdateQuery(ctx, query.Query{OrderBy: []query.OrderBy{{Field: "rank"}}}, entity.Fields{"rank": 1})
	assert.ErrorIs(t, err, ErrNoConstraints)
	_, err = r.DeleteQuery(ctx, query.Query{})
	assert.ErrorIs(t, err, ErrNoConstraints)
	_, err = r.Query(ctx, query.Query{Where: []query.Where{{Field: "rank", Operator: "~=", Value: 1}}})
	assert.ErrorIs(t, err, query.ErrInvalidQuery)
	_, err = r.List(ctx, query.PageRequest{OrderBy: "rank", Direction: "up"}, nil)
	assert.ErrorIs(t, err, query.ErrInvalidQuery)

	assert.Equal(t, 0, spy.calls)
}

func TestSetOne_OverwritesWholeDocument(t *testing.T) {
	ctx := context.Background()
	r := newRepo(docstore.NewMemory())
	rec := create(t, r, item{Name: "a", Image: "img.png", Note: "n"})

	repl := entity.New(item{Name: "b"})
	repl.ID = rec.ID
	_, err := r.SetOne(ctx, repl)
	require.NoError(t, err)

	got, err := r.GetOne(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, item{Name: "b"}, got.Data)

	created, err := r.SetOne(ctx, entity.New(item{Name: "c"}))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestCreateOrUpdate(t *testing.T) {
	ctx := context.Background()
	r := newRepo(docstore.NewMemory())
	rec, err := r.CreateOrUpdate(ctx, entity.New(item{Name: "a", Note: "n"}))
	require.NoError(t, err)

	upd := entity.New(item{Name: "a2"})
	upd.ID = rec.ID
	got, err := r.CreateOrUpdate(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.Data.Name)
	assert.Equal(t, "n", got.Data.Note)
	assert.Equal(t, rec.Created, got.Created)
}

func TestSoftDeleteRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newRepo(docstore.NewMemory())
	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.Local)
	restore := entity.SetClock(func() time.Time { return now })
	defer restore()
	a := create(t, r, item{Name: "a", Rank: 3, Note: "kept"})
	b := create(t, r, item{Name: "b"})
	c := create(t, r, item{Name: "c"})

	now = now.Add(time.Hour)
	del, err := r.SoftDeleteOne(ctx, a.ID, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, del.ToDelete)
	assert.True(t, del.ToDelete.Status)
	assert.Equal(t, "ana@example.com", del.ToDelete.UserEmail)

	now = now.Add(time.Hour)
	restored, err := r.RestoreOne(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.ToDelete)
	got, err := r.GetOne(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsMarked())
	assert.Equal(t, a.Data, got.Data)
	assert.Equal(t, a.Created, got.Created)
	assert.Equal(t, entity.FormatTimestamp(now), got.Updated)
	assert.NotEqual(t, a.Updated, got.Updated)

	_, err = r.SoftDeleteOne(ctx, b.ID, "ana@example.com")
	require.NoError(t, err)
	_, err = r.SoftDeleteOne(ctx, c.ID, "bo@example.com")
	require.NoError(t, err)

	back, err := r.RestoreAll(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names(back))

	marked, err := r.Marked(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names(marked))

	back, err = r.RestoreAll(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names(back))
}

func TestDeleteOne_AbsentReturnsNil(t *testing.T) {
	r := newRepo(docstore.NewMemory())
	rec, err := r.DeleteOne(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestDeleteQuery(t *testing.T) {
	ctx := context.Background()
	r := newRepo(docstore.NewMemory())
	for i := 1; i <= 4; i++ {
		create(t, r, item{Name: fmt.Sprintf("n%d", i), Rank: i % 2})
	}
	deleted, err := r.DeleteQuery(ctx, query.Query{Where: []query.Where{query.Filter("rank", query.Equal, 1)}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"n1", "n3"}, names(deleted))
	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteMarked_RemovesConfirmedDocumentsAndFiles(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()
	files := storage.NewMemory()
	r := newRepo(mem, WithFiles(files, func(rec *entity.Record[item]) string { return rec.Data.Image }))

	var urls []string
	for i := 0; i < 5; i++ {
		url, err := r.UploadFile(ctx, fmt.Sprintf("items/item-%d", i), strings.NewReader("x"), 1, "image/png")
		require.NoError(t, err)
		urls = append(urls, url)
		rec := create(t, r, item{Name: fmt.Sprintf("i%d", i), Image: url})
		switch {
		case i < 3:
			_, err = r.ConfirmDeleteOne(ctx, rec.ID, "admin@example.com")
		case i == 3:
			_, err = r.SoftDeleteOne(ctx, rec.ID, "admin@example.com")
		}
		require.NoError(t, err)
	}

	deleted, err := r.DeleteMarked(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"i0", "i1", "i2"}, names(deleted))
	assert.Equal(t, 2, mem.Len("items"))

	left, err := files.List(ctx, "items/")
	require.NoError(t, err)
	assert.Equal(t, []string{"items/item-3.png", "items/item-4.png"}, left)
}

// failingDeletes rejects deletes of one document.
type failingDeletes struct {
	docstore.Store
	failID string
}

func (f *failingDeletes) Delete(ctx context.Context, c, id string) error {
	if id == f.failID {
		return errors.New("unavailable")
	}
	return f.Store.Delete(ctx, c, id)
}

func TestDeleteMarked_LogsAndSkipsFailures(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stdout)

	mem := docstore.NewMemory()
	fail := &failingDeletes{Store: mem}
	r := newRepo(fail)
	var ids []string
	for i := 0; i < 3; i++ {
		rec := create(t, r, item{Name: fmt.Sprintf("i%d", i)})
		_, err := r.ConfirmDeleteOne(ctx, rec.ID, "")
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	fail.failID = ids[1]

	deleted, err := r.DeleteMarked(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"i0", "i2"}, names(deleted))
	assert.Equal(t, 1, mem.Len("items"))
	assert.Contains(t, buf.String(), "[ERROR] repository/items: delete "+ids[1]+" failed: unavailable")
}

func TestOmit_KeysAreNeverWritten(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()
	r := newRepo(mem, Omit[item]("note"))

	rec := create(t, r, item{Name: "a", Note: "snapshot"})
	snap, err := mem.Get(ctx, "items", rec.ID)
	require.NoError(t, err)
	assert.NotContains(t, snap.Data, "note")

	_, err = r.UpdateOne(ctx, rec.ID, entity.Fields{"note": "again"})
	require.NoError(t, err)
	snap, err = mem.Get(ctx, "items", rec.ID)
	require.NoError(t, err)
	assert.NotContains(t, snap.Data, "note")
}

func TestUploadFile_WithoutStore(t *testing.T) {
	r := newRepo(docstore.NewMemory())
	_, err := r.UploadFile(context.Background(), "x", strings.NewReader(""), 0, "image/png")
	assert.ErrorIs(t, err, ErrNoFileStore)
	assert.NoError(t, r.DeleteFile(context.Background(), ""))
}
