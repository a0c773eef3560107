package quiz

import (
	"context"
	"sync"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/repository"
)

// DataSizes manages the singleton counters document. Counters only move by
// increments; Replace is the reconciliation path used by the recount job.
type DataSizes struct {
	*repository.Repository[models.DataSize]
	mu sync.Mutex
}

func newDataSizes(store docstore.Store) *DataSizes {
	return &DataSizes{Repository: repository.New[models.DataSize](store, models.DataSizeCollection)}
}

// Get returns the counters document, creating a zeroed one when missing.
func (d *DataSizes) Get(ctx context.Context) (*models.DataSizeRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	all, err := d.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > 0 {
		return all[0], nil
	}
	return d.CreateOne(ctx, entity.New(models.DataSize{}))
}

// Add increments counters by field path, e.g. models.FieldTests or
// SubjectCounter("Physics"). Zero deltas are skipped.
func (d *DataSizes) Add(ctx context.Context, deltas map[string]int) (*models.DataSizeRecord, error) {
	fields := entity.Fields{}
	for path, n := range deltas {
		if n != 0 {
			fields[path] = docstore.Increment(n)
		}
	}
	cur, err := d.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return cur, nil
	}
	return d.UpdateOne(ctx, cur.ID, fields)
}

// Replace overwrites the counters with data.
func (d *DataSizes) Replace(ctx context.Context, data models.DataSize) (*models.DataSizeRecord, error) {
	cur, err := d.Get(ctx)
	if err != nil {
		return nil, err
	}
	rec := entity.New(data)
	rec.ID = cur.ID
	rec.Created = cur.Created
	return d.SetOne(ctx, rec)
}

// SubjectCounter is the field path of a per-subject question counter.
func SubjectCounter(subject string) string {
	return models.FieldQuestionsSubject + "." + docstore.Quote(subject)
}

// UserRequestCounter is the field path of a per-user request counter.
func UserRequestCounter(userID string) string {
	return models.FieldRequestsUsers + "." + docstore.Quote(userID)
}

// WeekCounter is the field path of the weekly tests counter for a record
// created at the given timestamp, or "" when it does not parse.
func WeekCounter(created string) string {
	t, err := entity.ParseTimestamp(created)
	if err != nil {
		return ""
	}
	return models.FieldTestsByWeek + "." + models.WeekStart(t)
}

// keyed adds n to the counter path(key) in deltas. Records without a key
// (no subject, no owner, no parsable date) only move the general counters.
func keyed(deltas map[string]int, path func(string) string, key string, n int) {
	if key == "" {
		return
	}
	if p := path(key); p != "" {
		deltas[p] += n
	}
}
