package quiz

import (
	"context"
	"time"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/query"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/repository"
)

// Backups manages the registry of exports kept in the backup cloud.
type Backups struct {
	*repository.Repository[models.Backup]
}

func newBackups(store docstore.Store) *Backups {
	return &Backups{repository.New[models.Backup](store, models.BackupsCollection)}
}

// GetLast returns the most recently started backup, or nil.
func (b *Backups) GetLast(ctx context.Context) (*models.BackupRecord, error) {
	return b.First(ctx, query.Query{OrderBy: []query.OrderBy{query.Sort("start", query.Desc)}})
}

// GetLastMonths returns the backups of the month of now and the two before.
func (b *Backups) GetLastMonths(ctx context.Context, now time.Time) ([]*models.BackupRecord, error) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	months := make([]any, 0, 3)
	for i := 0; i < 3; i++ {
		months = append(months, models.MonthAbbrev(first.AddDate(0, -i, 0).Month()))
	}
	return b.Query(ctx, query.Query{Where: []query.Where{query.Filter("month", query.In, months)}})
}

// Record registers a finished backup under the next registry number.
func (b *Backups) Record(ctx context.Context, start, end time.Time, size, cloudID string) (*models.BackupRecord, error) {
	last, err := b.GetLast(ctx)
	if err != nil {
		return nil, err
	}
	var prev string
	if last != nil {
		prev = last.Data.Registry
	}
	return b.CreateOne(ctx, entity.New(models.Backup{
		Registry: models.NextRegistry(prev),
		CloudID:  cloudID,
		Size:     size,
		Start:    entity.FormatTimestamp(start),
		End:      entity.FormatTimestamp(end),
		Month:    models.MonthAbbrev(start.Month()),
	}))
}

// Before returns the backups started before bound ("YYYY-MM-DD").
func (b *Backups) Before(ctx context.Context, bound string) ([]*models.BackupRecord, error) {
	return b.Query(ctx, query.Query{
		Where:   []query.Where{query.Filter("start", query.Less, bound)},
		OrderBy: []query.OrderBy{query.Sort("start", query.Asc)},
	})
}

// DeleteByCloudID removes the record of the backup stored under cloudID.
func (b *Backups) DeleteByCloudID(ctx context.Context, cloudID string) ([]*models.BackupRecord, error) {
	return b.DeleteQuery(ctx, byField("cloudId", cloudID))
}
