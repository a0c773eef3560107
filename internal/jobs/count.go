package jobs

import (
	"context"
	"fmt"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
)

// CountData recomputes every counter from the collections and overwrites
// the data-size document. Every known subject gets an entry, even at zero.
func (r *Runner) CountData(ctx context.Context) (out models.DataSize, err error) {
	defer func() { r.finish(JobCountData, err) }()

	users, err := r.repos.Users.GetAll(ctx)
	if err != nil {
		return out, fmt.Errorf("count users: %w", err)
	}
	subjects, err := r.repos.Subjects.GetAll(ctx)
	if err != nil {
		return out, fmt.Errorf("count subjects: %w", err)
	}
	questions, err := r.repos.Questions.GetAll(ctx)
	if err != nil {
		return out, fmt.Errorf("count questions: %w", err)
	}
	requests, err := r.repos.Requests.GetAll(ctx)
	if err != nil {
		return out, fmt.Errorf("count requests: %w", err)
	}
	tests, err := r.repos.Tests.GetAll(ctx)
	if err != nil {
		return out, fmt.Errorf("count tests: %w", err)
	}

	out.Defaults()
	out.Users = len(users)
	for _, s := range subjects {
		out.Questions.Subject[s.Data.Name] = 0
	}
	out.Questions.General = len(questions)
	for _, q := range questions {
		if q.Data.Subject != "" {
			out.Questions.Subject[q.Data.Subject]++
		}
	}
	out.QuestionRequests.General = len(requests)
	for _, rq := range requests {
		if rq.Data.UserID != "" {
			out.QuestionRequests.Users[rq.Data.UserID]++
		}
	}
	out.Tests = len(tests)
	for _, t := range tests {
		if created, err := entity.ParseTimestamp(t.Created); err == nil {
			out.TestsByWeek[models.WeekStart(created)]++
		}
	}

	if _, err := r.repos.DataSize.Replace(ctx, out); err != nil {
		return out, fmt.Errorf("replace data size: %w", err)
	}
	return out, nil
}
