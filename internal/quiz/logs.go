package quiz

import (
	"context"
	"encoding/json"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/repository"
)

// Logs is the error log collection. It also records saga step failures.
type Logs struct {
	*repository.Repository[models.Log]
}

func newLogs(store docstore.Store) *Logs {
	return &Logs{repository.New[models.Log](store, models.LogsCollection)}
}

// GetLast returns the most recent entry, or nil.
func (l *Logs) GetLast(ctx context.Context) (*models.LogRecord, error) {
	return l.First(ctx, query.Query{OrderBy: []query.OrderBy{query.Sort("date", query.Desc)}})
}

// Before returns entries dated before bound ("YYYY-MM-DD" compares as a
// prefix of the stored timestamps).
func (l *Logs) Before(ctx context.Context, bound string) ([]*models.LogRecord, error) {
	return l.Query(ctx, query.Query{
		Where:   []query.Where{query.Filter("date", query.Less, bound)},
		OrderBy: []query.OrderBy{query.Sort("date", query.Asc)},
	})
}

// Record stores an error entry. payload is rendered as JSON text.
func (l *Logs) Record(ctx context.Context, typ, message string, payload any, user *models.LogUser) (*models.LogRecord, error) {
	entry := models.Log{Date: entity.NowISOString(), Type: typ, Message: message, User: user}
	if user == nil {
		entry.User = &models.LogUser{}
	}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		entry.Payload = string(b)
	}
	return l.CreateOne(ctx, entity.New(entry))
}

// RecordFailure implements saga.Recorder.
func (l *Logs) RecordFailure(ctx context.Context, saga, step string, err error) error {
	_, rerr := l.Record(ctx, saga, err.Error(), map[string]string{"step": step}, nil)
	return rerr
}
