package quiz

import (
	"context"
	"errors"
	"io"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/cache"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/repository"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/saga"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/storage"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
)

// ErrUserExists is returned by SignUp for a uid that already has a profile.
var ErrUserExists = errors.New("user already signed up")

// Users manages user records. Record ids are identity provider uids.
type Users struct {
	*repository.Repository[models.User]
	cache    cache.Users
	sizes    *DataSizes
	recorder saga.Recorder
	log      *logger.Logger
}

func newUsers(store docstore.Store, files storage.FileStore, c cache.Users, sizes *DataSizes, rec saga.Recorder) *Users {
	opts := []repository.Option[models.User]{}
	if files != nil {
		opts = append(opts, repository.WithFiles(files, func(u *models.UserRecord) string { return u.Data.ProfileImages }))
	}
	return &Users{
		Repository: repository.New[models.User](store, models.UsersCollection, opts...),
		cache:      c,
		sizes:      sizes,
		recorder:   rec,
		log:        logger.With("quiz/users"),
	}
}

// GetLast returns the most recently created user, or nil.
func (u *Users) GetLast(ctx context.Context) (*models.UserRecord, error) {
	return u.First(ctx, query.Query{OrderBy: []query.OrderBy{query.Sort("created", query.Desc)}})
}

// GetByEmail returns the user with the given email, or nil.
func (u *Users) GetByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	return u.First(ctx, byField("email", email))
}

// UpdateOne merges fields and drops the cached snapshot.
func (u *Users) UpdateOne(ctx context.Context, id string, fields entity.Fields) (*models.UserRecord, error) {
	rec, err := u.Repository.UpdateOne(ctx, id, fields)
	u.forget(ctx, id)
	return rec, err
}

// UpdateByEmail updates the first user with the given email, or returns nil.
func (u *Users) UpdateByEmail(ctx context.Context, email string, fields entity.Fields) (*models.UserRecord, error) {
	q := byField("email", email)
	q.Limit = 1
	recs, err := u.UpdateQuery(ctx, q, fields)
	for _, r := range recs {
		u.forget(ctx, r.ID)
	}
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}

// SetOne replaces the user document and drops the cached snapshot.
func (u *Users) SetOne(ctx context.Context, rec *models.UserRecord) (*models.UserRecord, error) {
	out, err := u.Repository.SetOne(ctx, rec)
	if rec.ID != "" {
		u.forget(ctx, rec.ID)
	}
	return out, err
}

// SignUp stores the profile of a newly registered identity under its uid
// and counts the new user. An existing profile is left untouched and
// ErrUserExists is returned.
func (u *Users) SignUp(ctx context.Context, uid string, data models.User) (*models.UserRecord, saga.Report, error) {
	if uid == "" {
		return nil, saga.Report{}, repository.ErrIDNotProvided
	}
	existing, err := u.GetOne(ctx, uid)
	switch {
	case err == nil:
		return existing, saga.Report{}, ErrUserExists
	case !isNotFound(err):
		return nil, saga.Report{}, err
	}
	rec := entity.New(data)
	rec.ID = uid
	user, err := u.SetOne(ctx, rec)
	if err != nil {
		return nil, saga.Report{}, err
	}
	rep := saga.New("user-sign-up", u.recorder).
		Step("count", func(ctx context.Context) error {
			_, err := u.sizes.Add(ctx, map[string]int{models.FieldUsers: 1})
			return err
		}).
		Run(ctx)
	return user, rep, nil
}

// UploadAvatar stores a profile image and returns its URL.
func (u *Users) UploadAvatar(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	return u.UploadFile(ctx, "avatars/"+name, body, size, contentType)
}

// Snapshot returns the user for attaching to requests and tests, reading
// through the cache. A missing user yields nil.
func (u *Users) Snapshot(ctx context.Context, id string) (*models.UserRecord, error) {
	if id == "" {
		return nil, nil
	}
	if cached, err := u.cache.Get(ctx, id); err != nil {
		u.log.Warnf("cache get %s: %v", id, err)
	} else if cached != nil {
		return cached, nil
	}
	rec, err := u.GetOne(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := u.cache.Put(ctx, rec); err != nil {
		u.log.Warnf("cache put %s: %v", id, err)
	}
	return rec, nil
}

func (u *Users) forget(ctx context.Context, id string) {
	if err := u.cache.Invalidate(ctx, id); err != nil {
		u.log.Warnf("cache invalidate %s: %v", id, err)
	}
}

// attachUsers sets the owner snapshot on each record. Owners are looked up
// once per distinct id.
func attachUsers[T any](ctx context.Context, users *Users, recs []*entity.Record[T], owner func(*T) string, set func(*T, *models.UserRecord)) error {
	seen := map[string]*models.UserRecord{}
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		id := owner(&rec.Data)
		user, ok := seen[id]
		if !ok {
			var err error
			if user, err = users.Snapshot(ctx, id); err != nil {
				return err
			}
			seen[id] = user
		}
		set(&rec.Data, user)
	}
	return nil
}
