package quiz

import (
	"context"
	"io"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/repository"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/saga"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/storage"
)

// Requests manages question requests. Reads carry the author snapshot in
// Data.User; the snapshot is never written back.
type Requests struct {
	*repository.Repository[models.Request]
	users    *Users
	sizes    *DataSizes
	recorder saga.Recorder
}

func newRequests(store docstore.Store, files storage.FileStore, users *Users, sizes *DataSizes, rec saga.Recorder) *Requests {
	opts := []repository.Option[models.Request]{repository.Omit[models.Request]("user")}
	if files != nil {
		opts = append(opts, repository.WithFiles(files, func(r *models.RequestRecord) string { return r.Data.Image }))
	}
	return &Requests{
		Repository: repository.New[models.Request](store, models.RequestsCollection, opts...),
		users:      users,
		sizes:      sizes,
		recorder:   rec,
	}
}

func (r *Requests) withUsers(ctx context.Context, recs ...*models.RequestRecord) error {
	return attachUsers(ctx, r.users, recs,
		func(d *models.Request) string { return d.UserID },
		func(d *models.Request, u *models.UserRecord) { d.User = u })
}

func (r *Requests) one(ctx context.Context, rec *models.RequestRecord, err error) (*models.RequestRecord, error) {
	if err != nil || rec == nil {
		return rec, err
	}
	return rec, r.withUsers(ctx, rec)
}

func (r *Requests) many(ctx context.Context, recs []*models.RequestRecord, err error) ([]*models.RequestRecord, error) {
	if err != nil {
		return recs, err
	}
	return recs, r.withUsers(ctx, recs...)
}

func (r *Requests) GetOne(ctx context.Context, id string) (*models.RequestRecord, error) {
	rec, err := r.Repository.GetOne(ctx, id)
	return r.one(ctx, rec, err)
}

// GetByName returns the request with the given name, or nil.
func (r *Requests) GetByName(ctx context.Context, name string) (*models.RequestRecord, error) {
	rec, err := r.First(ctx, byField("name", name))
	return r.one(ctx, rec, err)
}

func (r *Requests) Query(ctx context.Context, q query.Query) ([]*models.RequestRecord, error) {
	recs, err := r.Repository.Query(ctx, q)
	return r.many(ctx, recs, err)
}

// List pages through requests ordered by status, optionally only those of
// one author.
func (r *Requests) List(ctx context.Context, p query.PageRequest, userID string) (query.Page[*models.RequestRecord], error) {
	constraints := &query.Query{OrderBy: []query.OrderBy{query.Sort("status", query.Asc)}}
	if userID != "" {
		constraints.Where = append(constraints.Where, query.Filter("userId", query.Equal, userID))
	}
	page, err := r.Repository.List(ctx, p, constraints)
	if err != nil {
		return page, err
	}
	return page, r.withUsers(ctx, page.Data...)
}

// Search matches requests by name prefix, author and status. Without a
// status filter results are ordered by status.
func (r *Requests) Search(ctx context.Context, text, userID, status string) ([]*models.RequestRecord, error) {
	var q query.Query
	if status != "" {
		q.Where = append(q.Where, query.Filter("status", query.Equal, status))
	}
	if text != "" {
		q.Where = append(q.Where, prefixSearch("name", text)...)
		q.OrderBy = append(q.OrderBy, query.Sort("name", query.Asc))
	}
	if userID != "" {
		q.Where = append(q.Where, query.Filter("userId", query.Equal, userID))
	}
	if status == "" {
		q.OrderBy = append(q.OrderBy, query.Sort("status", query.Asc))
	}
	return r.Query(ctx, q)
}

// CreateOne stores the request and counts it globally and for its author.
func (r *Requests) CreateOne(ctx context.Context, rec *models.RequestRecord) (*models.RequestRecord, saga.Report, error) {
	created, err := r.Repository.CreateOne(ctx, rec)
	if err != nil {
		return nil, saga.Report{}, err
	}
	rep := saga.New("request-create", r.recorder).
		Step("count", func(ctx context.Context) error {
			deltas := map[string]int{models.FieldRequestsGeneral: 1}
			keyed(deltas, UserRequestCounter, created.Data.UserID, 1)
			_, err := r.sizes.Add(ctx, deltas)
			return err
		}).
		Step("author", func(ctx context.Context) error {
			return r.withUsers(ctx, created)
		}).
		Run(ctx)
	return created, rep, nil
}

func (r *Requests) UpdateOne(ctx context.Context, id string, fields entity.Fields) (*models.RequestRecord, error) {
	rec, err := r.Repository.UpdateOne(ctx, id, fields)
	return r.one(ctx, rec, err)
}

func (r *Requests) UpdateQuery(ctx context.Context, q query.Query, fields entity.Fields) ([]*models.RequestRecord, error) {
	recs, err := r.Repository.UpdateQuery(ctx, q, fields)
	return r.many(ctx, recs, err)
}

func (r *Requests) SoftDeleteOne(ctx context.Context, id, userEmail string) (*models.RequestRecord, error) {
	rec, err := r.Repository.SoftDeleteOne(ctx, id, userEmail)
	return r.one(ctx, rec, err)
}

func (r *Requests) RestoreOne(ctx context.Context, id string) (*models.RequestRecord, error) {
	rec, err := r.Repository.RestoreOne(ctx, id)
	return r.one(ctx, rec, err)
}

func (r *Requests) RestoreAll(ctx context.Context, userEmail string) ([]*models.RequestRecord, error) {
	recs, err := r.Repository.RestoreAll(ctx, userEmail)
	return r.many(ctx, recs, err)
}

// DeleteMarked removes confirmed deletions with their images and subtracts
// them from the counters.
func (r *Requests) DeleteMarked(ctx context.Context) ([]*models.RequestRecord, saga.Report, error) {
	deleted, err := r.Repository.DeleteMarked(ctx)
	if err != nil {
		return nil, saga.Report{}, err
	}
	return deleted, r.uncount(ctx, "request-delete-marked", deleted), nil
}

// DeleteApproved removes the approved requests of one author. Their images
// stay in place since the approved questions point at them.
func (r *Requests) DeleteApproved(ctx context.Context, userID string) ([]*models.RequestRecord, saga.Report, error) {
	deleted, err := r.DeleteQuery(ctx, query.Query{Where: []query.Where{
		query.Filter("userId", query.Equal, userID),
		query.Filter("status", query.Equal, models.StatusApproved),
	}})
	if err != nil {
		return deleted, saga.Report{}, err
	}
	return deleted, r.uncount(ctx, "request-delete-approved", deleted), nil
}

func (r *Requests) uncount(ctx context.Context, name string, deleted []*models.RequestRecord) saga.Report {
	return saga.New(name, r.recorder).
		Step("count", func(ctx context.Context) error {
			if len(deleted) == 0 {
				return nil
			}
			deltas := map[string]int{models.FieldRequestsGeneral: -len(deleted)}
			for _, d := range deleted {
				keyed(deltas, UserRequestCounter, d.Data.UserID, -1)
			}
			_, err := r.sizes.Add(ctx, deltas)
			return err
		}).
		Run(ctx)
}

// UploadImage stores a request image under the question image prefix so it
// survives approval.
func (r *Requests) UploadImage(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	return r.UploadFile(ctx, "questions/question-"+name, body, size, contentType)
}
