// Package jobs holds the maintenance tasks run outside request handling:
// retention of old backups and logs, counter reconciliation and backup
// registration.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/drive"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/quiz"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/metrics"
)

// Job names accepted by Run.
const (
	JobRetention = "retention"
	JobCountData = "count-data"
	JobBackup    = "backup"
)

// DefaultRetentionMonths keeps the current month and the two before it.
const DefaultRetentionMonths = 2

// ErrUnknownJob is returned by Run for an unrecognized name.
var ErrUnknownJob = errors.New("unknown job")

// Runner executes maintenance jobs against the repositories.
type Runner struct {
	repos     *quiz.Repos
	drive     drive.Files
	client    *http.Client
	endpoint  string
	retention int
	now       func() time.Time
	log       *logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDrive deletes the cloud copies of expired backups through files.
func WithDrive(files drive.Files) Option {
	return func(r *Runner) { r.drive = files }
}

// WithBackupEndpoint sets the URL of the function producing backups.
func WithBackupEndpoint(endpoint string, client *http.Client) Option {
	return func(r *Runner) {
		r.endpoint = endpoint
		if client != nil {
			r.client = client
		}
	}
}

// WithRetentionMonths sets how many whole months before the current one
// are kept.
func WithRetentionMonths(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.retention = n
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func New(repos *quiz.Repos, opts ...Option) *Runner {
	r := &Runner{
		repos:     repos,
		client:    &http.Client{Timeout: 9 * time.Minute},
		retention: DefaultRetentionMonths,
		now:       time.Now,
		log:       logger.With("jobs"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Names lists the runnable jobs.
func Names() []string {
	names := []string{JobRetention, JobCountData, JobBackup}
	sort.Strings(names)
	return names
}

// Run executes the named job once.
func (r *Runner) Run(ctx context.Context, name string) error {
	var err error
	switch name {
	case JobRetention:
		_, err = r.Retention(ctx)
	case JobCountData:
		_, err = r.CountData(ctx)
	case JobBackup:
		_, err = r.Backup(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return err
}

func (r *Runner) finish(job string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		r.log.Errorf("%s failed: %v", job, err)
	} else {
		r.log.Infof("%s done", job)
	}
	metrics.JobRuns.WithLabelValues(job, outcome).Inc()
}
