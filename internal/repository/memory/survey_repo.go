// Package memory keeps users and surveys in process memory. It backs the
// "memory" store driver and the HTTP tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"opinex/internal/domain/survey"
)

type SurveyRepo struct {
	mu      sync.RWMutex
	surveys map[string]*survey.Survey
}

func NewSurveyRepo() *SurveyRepo {
	return &SurveyRepo{surveys: make(map[string]*survey.Survey)}
}

func (r *SurveyRepo) Create(ctx context.Context, s *survey.Survey) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.NewString()
	r.surveys[s.ID] = cloneSurvey(s)
	return s.ID, nil
}

func (r *SurveyRepo) GetByID(ctx context.Context, id string) (*survey.Survey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.surveys[id]
	if !ok {
		return nil, survey.ErrNotFound
	}
	return cloneSurvey(s), nil
}

func (r *SurveyRepo) ListByOwner(ctx context.Context, email string) ([]survey.Survey, error) {
	return r.collect(func(s *survey.Survey) bool { return s.SurveyorEmail == email }, byCreatedAsc, 0), nil
}

func (r *SurveyRepo) List(ctx context.Context, status survey.Status) ([]survey.Survey, error) {
	return r.collect(func(s *survey.Survey) bool {
		return status == "" || s.Status == status
	}, byCreatedAsc, 0), nil
}

func (r *SurveyRepo) Update(ctx context.Context, id string, input survey.UpdateInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return survey.ErrNotFound
	}
	input.Apply(s)
	return nil
}

func (r *SurveyRepo) SetStatus(ctx context.Context, id string, from, to survey.Status, feedback *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return survey.ErrNotFound
	}
	if s.Status != from {
		return survey.ErrConditionFailed
	}
	s.Status = to
	if feedback != nil {
		s.Feedback = *feedback
	}
	return nil
}

func (r *SurveyRepo) AddVote(ctx context.Context, id string, v survey.Voter, c *survey.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return survey.ErrNotFound
	}
	if s.Status != survey.StatusPublish || s.HasVoter(v.UserEmail) {
		return survey.ErrConditionFailed
	}
	switch v.Vote {
	case survey.ChoiceYes:
		s.YesCount++
	case survey.ChoiceNo:
		s.NoCount++
	default:
		return survey.ErrInvalidVote
	}
	s.Voter = append(s.Voter, v)
	if c != nil {
		s.Comment = append(s.Comment, *c)
	}
	return nil
}

func (r *SurveyRepo) AddComment(ctx context.Context, id string, c survey.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return survey.ErrNotFound
	}
	s.Comment = append(s.Comment, c)
	return nil
}

func (r *SurveyRepo) AddReport(ctx context.Context, id string, rep survey.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return survey.ErrNotFound
	}
	if s.HasReporter(rep.UserEmail) {
		return survey.ErrConditionFailed
	}
	s.ReportedBy = append(s.ReportedBy, rep)
	return nil
}

func (r *SurveyRepo) TopByVotes(ctx context.Context, limit int) ([]survey.Survey, error) {
	return r.collect(published, func(a, b *survey.Survey) bool {
		if a.TotalVotes() != b.TotalVotes() {
			return a.TotalVotes() > b.TotalVotes()
		}
		return a.ID < b.ID
	}, limit), nil
}

func (r *SurveyRepo) Latest(ctx context.Context, limit int) ([]survey.Survey, error) {
	return r.collect(published, func(a, b *survey.Survey) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	}, limit), nil
}

func (r *SurveyRepo) FindByVoter(ctx context.Context, f survey.Filter) ([]survey.Survey, error) {
	return r.collect(func(s *survey.Survey) bool {
		for _, v := range s.Voter {
			if v.UserEmail == f.UserEmail && (f.Vote == "" || v.Vote == f.Vote) {
				return true
			}
		}
		return false
	}, byCreatedAsc, 0), nil
}

func (r *SurveyRepo) FindByCommenter(ctx context.Context, f survey.Filter) ([]survey.Survey, error) {
	return r.collect(func(s *survey.Survey) bool {
		for _, c := range s.Comment {
			if c.UserEmail == f.UserEmail {
				return true
			}
		}
		return false
	}, byCreatedAsc, 0), nil
}

func (r *SurveyRepo) FindByReporter(ctx context.Context, f survey.Filter) ([]survey.Survey, error) {
	return r.collect(func(s *survey.Survey) bool {
		return s.HasReporter(f.UserEmail)
	}, byCreatedAsc, 0), nil
}

func (r *SurveyRepo) collect(match func(*survey.Survey) bool, less func(a, b *survey.Survey) bool, limit int) []survey.Survey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*survey.Survey, 0, len(r.surveys))
	for _, s := range r.surveys {
		if match(s) {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return less(matched[i], matched[j]) })
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	res := make([]survey.Survey, 0, len(matched))
	for _, s := range matched {
		res = append(res, *cloneSurvey(s))
	}
	return res
}

func published(s *survey.Survey) bool {
	return s.Status == survey.StatusPublish
}

func byCreatedAsc(a, b *survey.Survey) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func cloneSurvey(s *survey.Survey) *survey.Survey {
	c := *s
	c.Voter = append([]survey.Voter{}, s.Voter...)
	c.Comment = append([]survey.Comment{}, s.Comment...)
	c.ReportedBy = append([]survey.Report{}, s.ReportedBy...)
	return &c
}
