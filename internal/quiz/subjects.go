package quiz

import (
	"context"
	"fmt"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/docstore"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/entity"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/repository"
)

// Subjects manages subjects and their denormalized question lists.
type Subjects struct {
	*repository.Repository[models.Subject]
}

func newSubjects(store docstore.Store) *Subjects {
	return &Subjects{repository.New[models.Subject](store, models.SubjectsCollection)}
}

// GetByName returns the named subject, or nil.
func (s *Subjects) GetByName(ctx context.Context, name string) (*models.SubjectRecord, error) {
	return s.First(ctx, byField("name", name))
}

// RemoveQuestion drops a question from its subject's list. It returns the
// subject (nil when it does not exist) and whether the list changed.
func (s *Subjects) RemoveQuestion(ctx context.Context, q *models.QuestionRecord) (*models.SubjectRecord, bool, error) {
	if q == nil {
		return nil, false, nil
	}
	subj, err := s.GetByName(ctx, q.Data.Subject)
	if err != nil || subj == nil {
		return subj, false, err
	}
	if !subj.Data.RemoveQuestion(q.Data.Name) {
		return subj, false, nil
	}
	updated, err := s.UpdateOne(ctx, subj.ID, entity.Fields{"questions": subj.Data.Questions})
	if err != nil {
		return subj, false, fmt.Errorf("remove %s from subject %s: %w", q.Data.Name, subj.Data.Name, err)
	}
	return updated, true, nil
}

// AddQuestions lists each question under its subject, skipping unknown
// subjects and names already listed. It returns the subjects that changed
// and the questions added per subject id.
func (s *Subjects) AddQuestions(ctx context.Context, qs ...*models.QuestionRecord) ([]*models.SubjectRecord, map[string][]*models.QuestionRecord, error) {
	var changed []*models.SubjectRecord
	added := map[string][]*models.QuestionRecord{}
	byName := map[string]*models.SubjectRecord{}
	for _, q := range qs {
		subj, seen := byName[q.Data.Subject]
		if !seen {
			var err error
			subj, err = s.GetByName(ctx, q.Data.Subject)
			if err != nil {
				return nil, nil, err
			}
			byName[q.Data.Subject] = subj
		}
		if subj == nil {
			continue
		}
		if !subj.Data.AddQuestion(q.Data.Name, q.Data.LevelIndex()) {
			continue
		}
		if len(added[subj.ID]) == 0 {
			changed = append(changed, subj)
		}
		added[subj.ID] = append(added[subj.ID], q)
	}
	out := make([]*models.SubjectRecord, 0, len(changed))
	for _, subj := range changed {
		updated, err := s.UpdateOne(ctx, subj.ID, entity.Fields{"questions": subj.Data.Questions})
		if err != nil {
			return out, added, fmt.Errorf("add questions to subject %s: %w", subj.Data.Name, err)
		}
		out = append(out, updated)
	}
	return out, added, nil
}
