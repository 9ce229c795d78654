package survey_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"opinex/internal/domain/survey"
	"opinex/internal/repository/memory"
)

var (
	owner = survey.Actor{Email: "a@x.com", Name: "Alice"}
	admin = survey.Actor{Email: "root@x.com", IsAdmin: true}
)

func newService() (*survey.Service, *memory.SurveyRepo) {
	repo := memory.NewSurveyRepo()
	return survey.NewService(repo), repo
}

func createSurvey(t *testing.T, svc *survey.Service, title string) string {
	t.Helper()
	id, err := svc.Create(context.Background(), owner, survey.CreateInput{
		Title:         title,
		Category:      "tech",
		QuestionTitle: "Do you agree?",
	})
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return id
}

func TestCreateDefaults(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, owner, survey.CreateInput{QuestionTitle: "Q"}); !errors.Is(err, survey.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing title, got %v", err)
	}
	if _, err := svc.Create(ctx, survey.Actor{}, survey.CreateInput{Title: "T", QuestionTitle: "Q"}); !errors.Is(err, survey.ErrForbidden) {
		t.Fatalf("expected forbidden without owner, got %v", err)
	}

	id := createSurvey(t, svc, "T")
	s, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Status != survey.StatusPublish || s.YesCount != 0 || s.NoCount != 0 {
		t.Fatalf("unexpected defaults %+v", s)
	}
	if len(s.Voter) != 0 || len(s.Comment) != 0 || len(s.ReportedBy) != 0 {
		t.Fatalf("expected empty arrays %+v", s)
	}
	if s.SurveyorEmail != owner.Email || s.CreatedAt.IsZero() {
		t.Fatalf("owner or createdAt not set %+v", s)
	}
}

func TestScenarioVoteReportClose(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	id := createSurvey(t, svc, "T")

	s, err := svc.Vote(ctx, survey.Actor{Email: "b@x.com", Name: "Bob"}, id, survey.Ballot{Vote: survey.ChoiceYes})
	if err != nil {
		t.Fatalf("vote yes: %v", err)
	}
	if s.YesCount != 1 || s.NoCount != 0 || len(s.Voter) != 1 {
		t.Fatalf("unexpected after yes %+v", s)
	}

	s, err = svc.Vote(ctx, survey.Actor{Email: "c@x.com"}, id, survey.Ballot{Vote: survey.ChoiceNo, Comment: "nope"})
	if err != nil {
		t.Fatalf("vote no: %v", err)
	}
	if s.YesCount != 1 || s.NoCount != 1 || len(s.Comment) != 1 {
		t.Fatalf("unexpected after no %+v", s)
	}

	s, err = svc.Report(ctx, survey.Actor{Email: "d@x.com"}, id, "spam")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(s.ReportedBy) != 1 {
		t.Fatalf("expected one report, got %d", len(s.ReportedBy))
	}

	feedback := "done"
	if _, err := svc.UpdateStatus(ctx, id, survey.StatusClosed, &feedback); err != nil {
		t.Fatalf("close: %v", err)
	}
	s, err = svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.Status != survey.StatusClosed || s.Feedback != "done" {
		t.Fatalf("expected closed with feedback, got %+v", s)
	}
	if _, err := svc.Vote(ctx, survey.Actor{Email: "e@x.com"}, id, survey.Ballot{Vote: survey.ChoiceYes}); !errors.Is(err, survey.ErrNotOpen) {
		t.Fatalf("expected not open after close, got %v", err)
	}
}

func TestVoteRejections(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	id := createSurvey(t, svc, "T")
	voter := survey.Actor{Email: "b@x.com"}

	if _, err := svc.Vote(ctx, voter, id, survey.Ballot{Vote: "maybe"}); !errors.Is(err, survey.ErrInvalidVote) {
		t.Fatalf("expected invalid vote, got %v", err)
	}
	s, _ := repo.GetByID(ctx, id)
	if s.YesCount != 0 || s.NoCount != 0 || len(s.Voter) != 0 {
		t.Fatalf("invalid vote changed state %+v", s)
	}

	if _, err := svc.Vote(ctx, voter, id, survey.Ballot{Vote: survey.ChoiceYes}); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if _, err := svc.Vote(ctx, voter, id, survey.Ballot{Vote: survey.ChoiceNo}); !errors.Is(err, survey.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	if _, err := svc.Vote(ctx, voter, "missing", survey.Ballot{Vote: survey.ChoiceYes}); !errors.Is(err, survey.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	past := "2000-01-01"
	if _, err := svc.Update(ctx, owner, id, survey.UpdateInput{Deadline: &past}); err != nil {
		t.Fatalf("update deadline: %v", err)
	}
	if _, err := svc.Vote(ctx, survey.Actor{Email: "z@x.com"}, id, survey.Ballot{Vote: survey.ChoiceYes}); !errors.Is(err, survey.ErrDeadlinePassed) {
		t.Fatalf("expected deadline passed, got %v", err)
	}
}

func TestConcurrentDuplicateVotesCountOnce(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	id := createSurvey(t, svc, "T")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Vote(ctx, survey.Actor{Email: "b@x.com"}, id, survey.Ballot{Vote: survey.ChoiceYes})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, survey.ErrAlreadyVoted) {
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one successful vote, got %d", succeeded)
	}
	s, _ := repo.GetByID(ctx, id)
	if s.YesCount+s.NoCount != int64(len(s.Voter)) || len(s.Voter) != 1 {
		t.Fatalf("vote counts out of sync with voters: %+v", s)
	}
}

func TestUpdateOwnershipAndMerge(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	id := createSurvey(t, svc, "T")

	newTitle := "Renamed"
	if _, err := svc.Update(ctx, survey.Actor{Email: "intruder@x.com"}, id, survey.UpdateInput{Title: &newTitle}); !errors.Is(err, survey.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, owner, id, survey.UpdateInput{}); !errors.Is(err, survey.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty update, got %v", err)
	}
	for _, in := range []survey.UpdateInput{{Title: ptr("  ")}, {QuestionTitle: ptr("")}} {
		if _, err := svc.Update(ctx, owner, id, in); !errors.Is(err, survey.ErrInvalidInput) {
			t.Fatalf("expected invalid input for blank required field, got %v", err)
		}
	}

	s, err := svc.Update(ctx, owner, id, survey.UpdateInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if s.Title != "Renamed" || s.Category != "tech" || s.QuestionTitle != "Do you agree?" {
		t.Fatalf("merge overwrote untouched fields %+v", s)
	}

	category := "science"
	if _, err := svc.Update(ctx, admin, id, survey.UpdateInput{Category: &category}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	id := createSurvey(t, svc, "T")

	if _, err := svc.UpdateStatus(ctx, id, "archived", nil); !errors.Is(err, survey.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, id, survey.StatusDraft, nil); !errors.Is(err, survey.ErrInvalidTransition) {
		t.Fatalf("expected publish->draft to be rejected, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, id, survey.StatusUnpublish, nil); err != nil {
		t.Fatalf("publish->unpublish: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, id, survey.StatusPublish, nil); err != nil {
		t.Fatalf("unpublish->publish: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, id, survey.StatusClosed, nil); err != nil {
		t.Fatalf("publish->closed: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, id, survey.StatusPublish, nil); !errors.Is(err, survey.ErrInvalidTransition) {
		t.Fatalf("expected closed to be terminal, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "missing", survey.StatusClosed, nil); !errors.Is(err, survey.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusTable(t *testing.T) {
	cases := []struct {
		from, to survey.Status
		ok       bool
	}{
		{survey.StatusDraft, survey.StatusPublish, true},
		{survey.StatusDraft, survey.StatusUnpublish, false},
		{survey.StatusPublish, survey.StatusPublish, true},
		{survey.StatusUnpublish, survey.StatusClosed, true},
		{survey.StatusClosed, survey.StatusClosed, true},
		{survey.StatusClosed, survey.StatusDraft, false},
		{"bogus", survey.StatusClosed, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestFeaturedAndLatestOrdering(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	ids := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		ids = append(ids, createSurvey(t, svc, "S"))
		time.Sleep(time.Millisecond)
	}
	for i, id := range ids {
		for v := 0; v < i%4; v++ {
			email := string(rune('a'+v)) + "@x.com"
			if _, err := svc.Vote(ctx, survey.Actor{Email: email}, id, survey.Ballot{Vote: survey.ChoiceYes}); err != nil {
				t.Fatalf("vote: %v", err)
			}
		}
	}
	if _, err := svc.UpdateStatus(ctx, ids[7], survey.StatusUnpublish, nil); err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	featured, err := svc.Featured(ctx)
	if err != nil {
		t.Fatalf("featured: %v", err)
	}
	if len(featured) != survey.RankingLimit {
		t.Fatalf("expected %d featured, got %d", survey.RankingLimit, len(featured))
	}
	for i := 1; i < len(featured); i++ {
		if featured[i-1].TotalVotes() < featured[i].TotalVotes() {
			t.Fatalf("featured not sorted by votes: %d then %d", featured[i-1].TotalVotes(), featured[i].TotalVotes())
		}
		if featured[i].ID == ids[7] {
			t.Fatalf("unpublished survey must not be featured")
		}
	}

	latest, err := svc.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(latest) != survey.RankingLimit {
		t.Fatalf("expected %d latest, got %d", survey.RankingLimit, len(latest))
	}
	if latest[0].ID != ids[6] {
		t.Fatalf("expected newest published survey first")
	}
	for i := 1; i < len(latest); i++ {
		if latest[i-1].CreatedAt.Before(latest[i].CreatedAt) {
			t.Fatalf("latest not sorted by createdAt")
		}
	}
}

type countingCache struct {
	mu    sync.Mutex
	items map[string][]survey.Survey
	sets  int
}

func (c *countingCache) GetSurveys(ctx context.Context, key string) ([]survey.Survey, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[key]
	return s, ok, nil
}

func (c *countingCache) SetSurveys(ctx context.Context, key string, surveys []survey.Survey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = surveys
	c.sets++
	return nil
}

func TestRankingsUseCache(t *testing.T) {
	repo := memory.NewSurveyRepo()
	cache := &countingCache{items: map[string][]survey.Survey{}}
	svc := survey.NewService(repo).WithCache(cache)
	ctx := context.Background()
	createSurvey(t, svc, "T")

	first, err := svc.Featured(ctx)
	if err != nil || len(first) != 1 {
		t.Fatalf("featured: %v %d", err, len(first))
	}
	createSurvey(t, svc, "U")
	second, _ := svc.Featured(ctx)
	if len(second) != 1 || cache.sets != 1 {
		t.Fatalf("expected cached result until invalidation, got %d results and %d sets", len(second), cache.sets)
	}
}

func TestLookupsByParticipation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	a := createSurvey(t, svc, "A")
	b := createSurvey(t, svc, "B")
	bob := survey.Actor{Email: "b@x.com"}

	if _, err := svc.Vote(ctx, bob, a, survey.Ballot{Vote: survey.ChoiceYes, Comment: "good"}); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := svc.Vote(ctx, bob, b, survey.Ballot{Vote: survey.ChoiceNo}); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := svc.Report(ctx, bob, b, ""); err != nil {
		t.Fatalf("report: %v", err)
	}

	all, _ := svc.Participated(ctx, survey.Filter{UserEmail: bob.Email})
	yes, _ := svc.Participated(ctx, survey.Filter{UserEmail: bob.Email, Vote: survey.ChoiceYes})
	commented, _ := svc.Commented(ctx, survey.Filter{UserEmail: bob.Email})
	reported, _ := svc.Reported(ctx, survey.Filter{UserEmail: bob.Email})
	if len(all) != 2 || len(yes) != 1 || yes[0].ID != a {
		t.Fatalf("unexpected participation results: all=%d yes=%d", len(all), len(yes))
	}
	if len(commented) != 1 || commented[0].ID != a {
		t.Fatalf("unexpected commented results %d", len(commented))
	}
	if len(reported) != 1 || reported[0].ID != b {
		t.Fatalf("unexpected reported results %d", len(reported))
	}

	if _, err := svc.Participated(ctx, survey.Filter{}); !errors.Is(err, survey.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty filter, got %v", err)
	}
	if _, err := svc.Report(ctx, bob, b, "again"); !errors.Is(err, survey.ErrAlreadyReported) {
		t.Fatalf("expected already reported, got %v", err)
	}
	if _, err := svc.Comment(ctx, bob, b, "  "); !errors.Is(err, survey.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank comment, got %v", err)
	}
}

func ptr(s string) *string { return &s }
