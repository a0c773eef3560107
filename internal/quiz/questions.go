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

// Questions manages the question bank. Writes keep the subject lists and
// the question counters in step through sagas.
type Questions struct {
	*repository.Repository[models.Question]
	subjects *Subjects
	sizes    *DataSizes
	recorder saga.Recorder
}

func newQuestions(store docstore.Store, files storage.FileStore, subjects *Subjects, sizes *DataSizes, rec saga.Recorder) *Questions {
	var opts []repository.Option[models.Question]
	if files != nil {
		opts = append(opts, repository.WithFiles(files, func(q *models.QuestionRecord) string { return q.Data.Image }))
	}
	return &Questions{
		Repository: repository.New[models.Question](store, models.QuestionsCollection, opts...),
		subjects:   subjects,
		sizes:      sizes,
		recorder:   rec,
	}
}

// GetByName returns the question with the given (upper-cased) name, or nil.
func (q *Questions) GetByName(ctx context.Context, name string) (*models.QuestionRecord, error) {
	return q.First(ctx, byField("name", name))
}

// Search returns questions whose name starts with text, optionally within
// one subject, ordered by name.
func (q *Questions) Search(ctx context.Context, text, subject string) ([]*models.QuestionRecord, error) {
	where := prefixSearch("name", text)
	if subject != "" {
		where = append(where, query.Filter("subject", query.Equal, subject))
	}
	return q.Query(ctx, query.Query{Where: where, OrderBy: []query.OrderBy{query.Sort("name", query.Asc)}})
}

// CreateOne stores the question, counts it and lists it under its subject.
func (q *Questions) CreateOne(ctx context.Context, rec *models.QuestionRecord) (*models.QuestionRecord, saga.Report, error) {
	created, err := q.Repository.CreateOne(ctx, rec)
	if err != nil {
		return nil, saga.Report{}, err
	}
	rep := saga.New("question-create", q.recorder).
		Step("count", func(ctx context.Context) error {
			deltas := map[string]int{models.FieldQuestionsGeneral: 1}
			keyed(deltas, SubjectCounter, created.Data.Subject, 1)
			_, err := q.sizes.Add(ctx, deltas)
			return err
		}).
		Step("subject", func(ctx context.Context) error {
			_, _, err := q.subjects.AddQuestions(ctx, created)
			return err
		}).
		Run(ctx)
	return created, rep, nil
}

// UpdateOne merges fields into the question. When old is given and the
// subject or level changed, the question moves between subject lists and
// the per-subject counters follow.
func (q *Questions) UpdateOne(ctx context.Context, id string, fields entity.Fields, old *models.QuestionRecord) (*models.QuestionRecord, saga.Report, error) {
	updated, err := q.Repository.UpdateOne(ctx, id, fields)
	if err != nil {
		return nil, saga.Report{}, err
	}
	if old == nil || (old.Data.Subject == updated.Data.Subject && old.Data.LevelIndex() == updated.Data.LevelIndex()) {
		return updated, saga.Report{Saga: "question-update"}, nil
	}

	var removed, added bool
	rep := saga.New("question-update", q.recorder).
		Step("subject-remove", func(ctx context.Context) error {
			var err error
			_, removed, err = q.subjects.RemoveQuestion(ctx, old)
			return err
		}).
		Step("subject-add", func(ctx context.Context) error {
			subjects, _, err := q.subjects.AddQuestions(ctx, updated)
			added = len(subjects) > 0
			return err
		}).
		Step("count", func(ctx context.Context) error {
			deltas := map[string]int{}
			if removed {
				keyed(deltas, SubjectCounter, old.Data.Subject, -1)
			}
			if added {
				keyed(deltas, SubjectCounter, updated.Data.Subject, 1)
			}
			_, err := q.sizes.Add(ctx, deltas)
			return err
		}).
		Run(ctx)
	return updated, rep, nil
}

// SoftDeleteOne flags the question and takes it off its subject's list.
func (q *Questions) SoftDeleteOne(ctx context.Context, id, userEmail string) (*models.QuestionRecord, saga.Report, error) {
	rec, err := q.Repository.SoftDeleteOne(ctx, id, userEmail)
	if err != nil {
		return nil, saga.Report{}, err
	}
	rep := saga.New("question-soft-delete", q.recorder).
		Step("subject", func(ctx context.Context) error {
			_, _, err := q.subjects.RemoveQuestion(ctx, rec)
			return err
		}).
		Run(ctx)
	return rec, rep, nil
}

// RestoreOne clears the deletion flag and lists the question again.
func (q *Questions) RestoreOne(ctx context.Context, id string) (*models.QuestionRecord, saga.Report, error) {
	rec, err := q.Repository.RestoreOne(ctx, id)
	if err != nil {
		return nil, saga.Report{}, err
	}
	rep := saga.New("question-restore", q.recorder).
		Step("subject", func(ctx context.Context) error {
			_, _, err := q.subjects.AddQuestions(ctx, rec)
			return err
		}).
		Run(ctx)
	return rec, rep, nil
}

// RestoreAll restores every flagged question, optionally only those flagged
// by userEmail, and lists them again.
func (q *Questions) RestoreAll(ctx context.Context, userEmail string) ([]*models.QuestionRecord, saga.Report, error) {
	recs, err := q.Repository.RestoreAll(ctx, userEmail)
	if err != nil {
		return recs, saga.Report{}, err
	}
	rep := saga.New("question-restore-all", q.recorder).
		Step("subject", func(ctx context.Context) error {
			if len(recs) == 0 {
				return nil
			}
			_, _, err := q.subjects.AddQuestions(ctx, recs...)
			return err
		}).
		Run(ctx)
	return recs, rep, nil
}

// DeleteMarked removes confirmed deletions with their images and subtracts
// them from the counters.
func (q *Questions) DeleteMarked(ctx context.Context) ([]*models.QuestionRecord, saga.Report, error) {
	deleted, err := q.Repository.DeleteMarked(ctx)
	if err != nil {
		return nil, saga.Report{}, err
	}
	rep := saga.New("question-delete-marked", q.recorder).
		Step("count", func(ctx context.Context) error {
			if len(deleted) == 0 {
				return nil
			}
			deltas := map[string]int{models.FieldQuestionsGeneral: -len(deleted)}
			for _, d := range deleted {
				keyed(deltas, SubjectCounter, d.Data.Subject, -1)
			}
			_, err := q.sizes.Add(ctx, deltas)
			return err
		}).
		Run(ctx)
	return deleted, rep, nil
}

// UploadImage stores a question image as questions/question-<name>.<ext>.
func (q *Questions) UploadImage(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	return q.UploadFile(ctx, "questions/question-"+name, body, size, contentType)
}
