package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
)

// RetentionResult reports what a retention run removed.
type RetentionResult struct {
	Bound   string
	Backups []string
	Logs    int
}

// RetentionBound is the first day of the month the given number of months before
// now, as "YYYY-MM-DD".
func RetentionBound(now time.Time, months int) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -months, 0).Format("2006-01-02")
}

// Retention deletes backups started before the bound together with their
// Drive files, then log entries dated before it. Failures are written to
// the log collection and returned joined; nothing is retried.
func (r *Runner) Retention(ctx context.Context) (res RetentionResult, err error) {
	defer func() { r.finish(JobRetention, err) }()
	res.Bound = RetentionBound(r.now(), r.retention)

	var errs []error
	backups, err := r.repos.Backups.Before(ctx, res.Bound)
	if err != nil {
		errs = append(errs, r.failure(ctx, "Automatic Backup Delete", err, map[string]any{"belowDate": res.Bound}))
	}
	for _, b := range backups {
		if _, err := r.repos.Backups.DeleteOne(ctx, b.ID); err != nil {
			errs = append(errs, r.failure(ctx, "Automatic Backup Delete", err, map[string]any{"belowDate": res.Bound, "backup": b.ID}))
			continue
		}
		res.Backups = append(res.Backups, b.Data.CloudID)
		if r.drive == nil || b.Data.CloudID == "" {
			continue
		}
		if err := r.drive.Delete(ctx, b.Data.CloudID); err != nil {
			r.log.Warnf("delete drive file %s: %v", b.Data.CloudID, err)
		}
	}

	logs, err := r.repos.Logs.Before(ctx, res.Bound)
	if err != nil {
		errs = append(errs, r.failure(ctx, "Automatic Logs Delete", err, map[string]any{"belowDate": res.Bound}))
	}
	for _, l := range logs {
		if _, err := r.repos.Logs.DeleteOne(ctx, l.ID); err != nil {
			errs = append(errs, r.failure(ctx, "Automatic Logs Delete", err, map[string]any{"belowDate": res.Bound, "log": l.ID}))
			continue
		}
		res.Logs++
	}
	return res, errors.Join(errs...)
}

// failure stores a log entry for err and returns err wrapped with typ.
func (r *Runner) failure(ctx context.Context, typ string, err error, payload map[string]any) error {
	user := models.SystemUser
	if _, lerr := r.repos.Logs.Record(ctx, typ, err.Error(), payload, &user); lerr != nil {
		r.log.Warnf("record %s failure: %v", typ, lerr)
	}
	return fmt.Errorf("%s: %w", typ, err)
}
