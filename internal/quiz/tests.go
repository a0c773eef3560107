package quiz

import (
	"context"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/repository"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/saga"
)

// DefaultLastTests is the GetLast amount used when none is given.
const DefaultLastTests = 5

// Tests manages quizzes. Reads carry the owner snapshot in Data.User.
type Tests struct {
	*repository.Repository[models.Test]
	users    *Users
	sizes    *DataSizes
	recorder saga.Recorder
}

func newTests(store docstore.Store, users *Users, sizes *DataSizes, rec saga.Recorder) *Tests {
	return &Tests{
		Repository: repository.New[models.Test](store, models.TestsCollection, repository.Omit[models.Test]("user")),
		users:      users,
		sizes:      sizes,
		recorder:   rec,
	}
}

func (t *Tests) withUsers(ctx context.Context, recs ...*models.TestRecord) error {
	return attachUsers(ctx, t.users, recs,
		func(d *models.Test) string { return d.UserID },
		func(d *models.Test, u *models.UserRecord) { d.User = u })
}

func (t *Tests) one(ctx context.Context, rec *models.TestRecord, err error) (*models.TestRecord, error) {
	if err != nil || rec == nil {
		return rec, err
	}
	return rec, t.withUsers(ctx, rec)
}

func (t *Tests) many(ctx context.Context, recs []*models.TestRecord, err error) ([]*models.TestRecord, error) {
	if err != nil {
		return recs, err
	}
	return recs, t.withUsers(ctx, recs...)
}

func (t *Tests) GetOne(ctx context.Context, id string) (*models.TestRecord, error) {
	rec, err := t.Repository.GetOne(ctx, id)
	return t.one(ctx, rec, err)
}

// GetByUUID returns the test shared under uuid, or nil.
func (t *Tests) GetByUUID(ctx context.Context, uuid string) (*models.TestRecord, error) {
	rec, err := t.First(ctx, byField("uuid", uuid))
	return t.one(ctx, rec, err)
}

// GetByQuestion returns the tests that include the named question.
func (t *Tests) GetByQuestion(ctx context.Context, name string) ([]*models.TestRecord, error) {
	return t.Query(ctx, query.Query{Where: []query.Where{query.Filter("questionsNames", query.ArrayContains, name)}})
}

// GetLast returns the n most recently updated tests.
func (t *Tests) GetLast(ctx context.Context, n int) ([]*models.TestRecord, error) {
	if n <= 0 {
		n = DefaultLastTests
	}
	return t.Query(ctx, query.Query{OrderBy: []query.OrderBy{query.Sort("updated", query.Desc)}, Limit: n})
}

func (t *Tests) Query(ctx context.Context, q query.Query) ([]*models.TestRecord, error) {
	recs, err := t.Repository.Query(ctx, q)
	return t.many(ctx, recs, err)
}

func (t *Tests) List(ctx context.Context, p query.PageRequest) (query.Page[*models.TestRecord], error) {
	page, err := t.Repository.List(ctx, p, nil)
	if err != nil {
		return page, err
	}
	return page, t.withUsers(ctx, page.Data...)
}

// Search matches tests by title prefix.
func (t *Tests) Search(ctx context.Context, text string) ([]*models.TestRecord, error) {
	return t.Query(ctx, query.Query{
		Where:   prefixSearch("query", text),
		OrderBy: []query.OrderBy{query.Sort("query", query.Asc)},
	})
}

// CreateOne stores the test and counts it, in total and for the week it
// was created.
func (t *Tests) CreateOne(ctx context.Context, rec *models.TestRecord) (*models.TestRecord, saga.Report, error) {
	created, err := t.Repository.CreateOne(ctx, rec)
	if err != nil {
		return nil, saga.Report{}, err
	}
	rep := saga.New("test-create", t.recorder).
		Step("count", func(ctx context.Context) error {
			deltas := map[string]int{models.FieldTests: 1}
			keyed(deltas, WeekCounter, created.Created, 1)
			_, err := t.sizes.Add(ctx, deltas)
			return err
		}).
		Step("author", func(ctx context.Context) error {
			return t.withUsers(ctx, created)
		}).
		Run(ctx)
	return created, rep, nil
}

func (t *Tests) UpdateOne(ctx context.Context, id string, fields entity.Fields) (*models.TestRecord, error) {
	rec, err := t.Repository.UpdateOne(ctx, id, fields)
	return t.one(ctx, rec, err)
}

func (t *Tests) UpdateQuery(ctx context.Context, q query.Query, fields entity.Fields) ([]*models.TestRecord, error) {
	recs, err := t.Repository.UpdateQuery(ctx, q, fields)
	return t.many(ctx, recs, err)
}

func (t *Tests) SoftDeleteOne(ctx context.Context, id, userEmail string) (*models.TestRecord, error) {
	rec, err := t.Repository.SoftDeleteOne(ctx, id, userEmail)
	return t.one(ctx, rec, err)
}

// DeleteMarked removes confirmed deletions and subtracts them from the
// tests counter.
func (t *Tests) DeleteMarked(ctx context.Context) ([]*models.TestRecord, saga.Report, error) {
	deleted, err := t.Repository.DeleteMarked(ctx)
	if err != nil {
		return nil, saga.Report{}, err
	}
	rep := saga.New("test-delete-marked", t.recorder).
		Step("count", func(ctx context.Context) error {
			if len(deleted) == 0 {
				return nil
			}
			deltas := map[string]int{models.FieldTests: -len(deleted)}
			for _, d := range deleted {
				keyed(deltas, WeekCounter, d.Created, -1)
			}
			_, err := t.sizes.Add(ctx, deltas)
			return err
		}).
		Run(ctx)
	return deleted, rep, nil
}
