package survey

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("survey not found")
	ErrInvalidInput      = errors.New("invalid survey input")
	ErrInvalidVote       = errors.New("vote must be yes or no")
	ErrInvalidStatus     = errors.New("invalid survey status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrStatusConflict    = errors.New("survey status changed concurrently")
	ErrNotOpen           = errors.New("survey is not open for voting")
	ErrDeadlinePassed    = errors.New("survey deadline has passed")
	ErrAlreadyVoted      = errors.New("user already voted on this survey")
	ErrAlreadyReported   = errors.New("user already reported this survey")
	ErrForbidden         = errors.New("not allowed to modify this survey")
	// ErrConditionFailed is returned by repositories when a conditional
	// update matched no document; the service works out why.
	ErrConditionFailed = errors.New("survey update condition not met")
)

type Service struct {
	repo  Repository
	cache Cache
	now   func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithCache enables cache-aside reads for the featured and latest rankings.
func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

func (s *Service) Create(ctx context.Context, owner Actor, in CreateInput) (string, error) {
	if owner.Email == "" {
		return "", ErrForbidden
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.QuestionTitle) == "" {
		return "", ErrInvalidInput
	}

	sv := &Survey{
		SurveyorEmail:       owner.Email,
		Title:               in.Title,
		Description:         in.Description,
		Category:            in.Category,
		Deadline:            in.Deadline,
		CreatedAt:           s.now().UTC(),
		QuestionTitle:       in.QuestionTitle,
		QuestionDescription: in.QuestionDescription,
		Status:              StatusPublish,
		Voter:               []Voter{},
		Comment:             []Comment{},
		ReportedBy:          []Report{},
	}
	return s.repo.Create(ctx, sv)
}

func (s *Service) Get(ctx context.Context, id string) (*Survey, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, email string) ([]Survey, error) {
	return s.repo.ListByOwner(ctx, email)
}

// List returns surveys in status; an empty status lists every survey.
func (s *Service) List(ctx context.Context, status Status) ([]Survey, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, status)
}

func (s *Service) Update(ctx context.Context, caller Actor, id string, in UpdateInput) (*Survey, error) {
	if in.Empty() {
		return nil, ErrInvalidInput
	}
	if blank(in.Title) || blank(in.QuestionTitle) {
		return nil, ErrInvalidInput
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && caller.Email != current.SurveyorEmail {
		return nil, ErrForbidden
	}

	if err := s.repo.Update(ctx, id, in); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, feedback *string) (*Survey, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.SetStatus(ctx, id, current.Status, status, feedback); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, ErrStatusConflict
		}
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Ballot is what a voter submits for one survey.
type Ballot struct {
	Vote    Choice
	Comment string
}

func (s *Service) Vote(ctx context.Context, voter Actor, id string, b Ballot) (*Survey, error) {
	if !b.Vote.Valid() {
		return nil, ErrInvalidVote
	}
	if voter.Email == "" {
		return nil, ErrForbidden
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVotable(current, voter.Email); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	v := Voter{Vote: b.Vote, UserName: voter.Name, UserEmail: voter.Email, VotedAt: now}
	var c *Comment
	if text := strings.TrimSpace(b.Comment); text != "" {
		c = &Comment{Comment: text, UserEmail: voter.Email, UserName: voter.Name, CreatedAt: now}
	}

	if err := s.repo.AddVote(ctx, id, v, c); err != nil {
		if !errors.Is(err, ErrConditionFailed) {
			return nil, err
		}
		// Lost a race: reload to report the condition that no longer holds.
		latest, getErr := s.repo.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if err := s.checkVotable(latest, voter.Email); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyVoted
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) checkVotable(sv *Survey, email string) error {
	if sv.Status != StatusPublish {
		return ErrNotOpen
	}
	if sv.DeadlinePassed(s.now()) {
		return ErrDeadlinePassed
	}
	if sv.HasVoter(email) {
		return ErrAlreadyVoted
	}
	return nil
}

func (s *Service) Comment(ctx context.Context, author Actor, id, text string) (*Survey, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput
	}
	if author.Email == "" {
		return nil, ErrForbidden
	}
	c := Comment{Comment: text, UserEmail: author.Email, UserName: author.Name, CreatedAt: s.now().UTC()}
	if err := s.repo.AddComment(ctx, id, c); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Report(ctx context.Context, reporter Actor, id, reason string) (*Survey, error) {
	if reporter.Email == "" {
		return nil, ErrForbidden
	}
	r := Report{
		UserEmail:  reporter.Email,
		UserName:   reporter.Name,
		Reason:     strings.TrimSpace(reason),
		ReportedAt: s.now().UTC(),
	}
	if err := s.repo.AddReport(ctx, id, r); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, ErrAlreadyReported
		}
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Featured returns up to six published surveys with the most votes.
func (s *Service) Featured(ctx context.Context) ([]Survey, error) {
	return s.cached(ctx, CacheKeyFeatured, func() ([]Survey, error) {
		return s.repo.TopByVotes(ctx, RankingLimit)
	})
}

// Latest returns up to six most recently created published surveys.
func (s *Service) Latest(ctx context.Context) ([]Survey, error) {
	return s.cached(ctx, CacheKeyLatest, func() ([]Survey, error) {
		return s.repo.Latest(ctx, RankingLimit)
	})
}

func (s *Service) cached(ctx context.Context, key string, load func() ([]Survey, error)) ([]Survey, error) {
	if s.cache != nil {
		if hit, ok, err := s.cache.GetSurveys(ctx, key); err == nil && ok {
			return hit, nil
		}
	}
	res, err := load()
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSurveys(ctx, key, res)
	}
	return res, nil
}

func (s *Service) Participated(ctx context.Context, f Filter) ([]Survey, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	return s.repo.FindByVoter(ctx, f)
}

func (s *Service) Commented(ctx context.Context, f Filter) ([]Survey, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	return s.repo.FindByCommenter(ctx, Filter{UserEmail: f.UserEmail})
}

func (s *Service) Reported(ctx context.Context, f Filter) ([]Survey, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	return s.repo.FindByReporter(ctx, Filter{UserEmail: f.UserEmail})
}

// blank reports whether an update sets a required field to whitespace.
func blank(field *string) bool {
	return field != nil && strings.TrimSpace(*field) == ""
}

func validateFilter(f Filter) error {
	if f.UserEmail == "" {
		return ErrInvalidInput
	}
	if f.Vote != "" && !f.Vote.Valid() {
		return ErrInvalidVote
	}
	return nil
}
