package survey

import (
	"context"
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublish   Status = "publish"
	StatusUnpublish Status = "unpublish"
	StatusClosed    Status = "closed"
)

// transitions lists the statuses reachable from each status. Re-setting the
// current status is always allowed so moderators can amend feedback.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusPublish, StatusClosed},
	StatusPublish:   {StatusUnpublish, StatusClosed},
	StatusUnpublish: {StatusPublish, StatusClosed},
	StatusClosed:    {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) CanTransitionTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Choice string

const (
	ChoiceYes Choice = "yes"
	ChoiceNo  Choice = "no"
)

func (c Choice) Valid() bool {
	return c == ChoiceYes || c == ChoiceNo
}

type Survey struct {
	ID                  string    `json:"_id" bson:"-"`
	SurveyorEmail       string    `json:"surveyorEmail" bson:"surveyorEmail"`
	Title               string    `json:"title" bson:"title"`
	Description         string    `json:"description" bson:"description"`
	Category            string    `json:"category" bson:"category"`
	Deadline            string    `json:"deadline" bson:"deadline"`
	CreatedAt           time.Time `json:"createdAt" bson:"createdAt"`
	QuestionTitle       string    `json:"questionTitle" bson:"questionTitle"`
	QuestionDescription string    `json:"questionDescription" bson:"questionDescription"`
	Status              Status    `json:"status" bson:"status"`
	Feedback            string    `json:"feedback,omitempty" bson:"feedback,omitempty"`
	YesCount            int64     `json:"yesCount" bson:"yesCount"`
	NoCount             int64     `json:"noCount" bson:"noCount"`
	Voter               []Voter   `json:"voter" bson:"voter"`
	Comment             []Comment `json:"comment" bson:"comment"`
	ReportedBy          []Report  `json:"reportedBy" bson:"reportedBy"`
}

// TotalVotes is the ranking key for featured surveys.
func (s *Survey) TotalVotes() int64 {
	return s.YesCount + s.NoCount
}

func (s *Survey) HasVoter(email string) bool {
	for _, v := range s.Voter {
		if v.UserEmail == email {
			return true
		}
	}
	return false
}

func (s *Survey) HasReporter(email string) bool {
	for _, r := range s.ReportedBy {
		if r.UserEmail == email {
			return true
		}
	}
	return false
}

// DeadlinePassed reports whether the survey deadline parses and lies before now.
func (s *Survey) DeadlinePassed(now time.Time) bool {
	d, ok := parseDeadline(s.Deadline)
	return ok && now.After(d)
}

type Voter struct {
	Vote      Choice    `json:"vote" bson:"vote"`
	UserName  string    `json:"userName" bson:"userName"`
	UserEmail string    `json:"userEmail" bson:"userEmail"`
	VotedAt   time.Time `json:"votedAt" bson:"votedAt"`
}

type Comment struct {
	Comment   string    `json:"comment" bson:"comment"`
	UserEmail string    `json:"userEmail" bson:"userEmail"`
	UserName  string    `json:"userName,omitempty" bson:"userName,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Report struct {
	UserEmail  string    `json:"userEmail" bson:"userEmail"`
	UserName   string    `json:"userName,omitempty" bson:"userName,omitempty"`
	Reason     string    `json:"reason,omitempty" bson:"reason,omitempty"`
	ReportedAt time.Time `json:"reportedAt" bson:"reportedAt"`
}

type CreateInput struct {
	Title               string
	Description         string
	Category            string
	Deadline            string
	QuestionTitle       string
	QuestionDescription string
}

// UpdateInput is a field-level merge; nil fields are left untouched.
type UpdateInput struct {
	Title               *string `json:"title,omitempty"`
	Description         *string `json:"description,omitempty"`
	Category            *string `json:"category,omitempty"`
	Deadline            *string `json:"deadline,omitempty"`
	QuestionTitle       *string `json:"questionTitle,omitempty"`
	QuestionDescription *string `json:"questionDescription,omitempty"`
}

func (u UpdateInput) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil &&
		u.Deadline == nil && u.QuestionTitle == nil && u.QuestionDescription == nil
}

// Apply merges u into s. Repositories that cannot express a partial update
// natively use it.
func (u UpdateInput) Apply(s *Survey) {
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Category != nil {
		s.Category = *u.Category
	}
	if u.Deadline != nil {
		s.Deadline = *u.Deadline
	}
	if u.QuestionTitle != nil {
		s.QuestionTitle = *u.QuestionTitle
	}
	if u.QuestionDescription != nil {
		s.QuestionDescription = *u.QuestionDescription
	}
}

// Filter selects surveys whose voter, comment or reportedBy array holds an
// element matching every non-empty field.
type Filter struct {
	UserEmail string
	Vote      Choice
}

// Actor is the verified caller a mutation is performed on behalf of.
type Actor struct {
	Email   string
	Name    string
	IsAdmin bool
}

const RankingLimit = 6

type Repository interface {
	Create(ctx context.Context, s *Survey) (string, error)
	GetByID(ctx context.Context, id string) (*Survey, error)
	ListByOwner(ctx context.Context, email string) ([]Survey, error)
	// List returns surveys in the given status, or all surveys when status is empty.
	List(ctx context.Context, status Status) ([]Survey, error)
	Update(ctx context.Context, id string, input UpdateInput) error
	// SetStatus swaps the status only while it still equals from.
	SetStatus(ctx context.Context, id string, from, to Status, feedback *string) error
	// AddVote increments the matching counter and appends the voter (and the
	// comment, when non-nil) in one atomic update, provided the survey is
	// published and the voter email is not yet present.
	AddVote(ctx context.Context, id string, v Voter, c *Comment) error
	AddComment(ctx context.Context, id string, c Comment) error
	// AddReport appends r unless a report by the same email already exists.
	AddReport(ctx context.Context, id string, r Report) error
	TopByVotes(ctx context.Context, limit int) ([]Survey, error)
	Latest(ctx context.Context, limit int) ([]Survey, error)
	FindByVoter(ctx context.Context, f Filter) ([]Survey, error)
	FindByCommenter(ctx context.Context, f Filter) ([]Survey, error)
	FindByReporter(ctx context.Context, f Filter) ([]Survey, error)
}

// Cache holds ranking query results between survey mutations.
type Cache interface {
	GetSurveys(ctx context.Context, key string) ([]Survey, bool, error)
	SetSurveys(ctx context.Context, key string, surveys []Survey) error
}

const (
	CacheKeyFeatured = "surveys:featured"
	CacheKeyLatest   = "surveys:latest"
)

var deadlineLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDeadline(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if layout == "2006-01-02" {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			return t, true
		}
	}
	return time.Time{}, false
}
