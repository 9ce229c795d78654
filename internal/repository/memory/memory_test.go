package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"opinex/internal/domain/survey"
	"opinex/internal/domain/user"
)

func TestSurveyRepoConcurrentVotesKeepCountsConsistent(t *testing.T) {
	repo := NewSurveyRepo()
	ctx := context.Background()
	id, err := repo.Create(ctx, &survey.Survey{Title: "T", Status: survey.StatusPublish})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			choice := survey.ChoiceYes
			if i%2 == 1 {
				choice = survey.ChoiceNo
			}
			email := string(rune('a'+i%26)) + "@x.com"
			if i >= 26 {
				email = "dup-" + email
			}
			_ = repo.AddVote(ctx, id, survey.Voter{Vote: choice, UserEmail: email}, nil)
			_ = repo.AddVote(ctx, id, survey.Voter{Vote: choice, UserEmail: email}, nil)
		}(i)
	}
	wg.Wait()

	s, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := s.YesCount + s.NoCount; got != int64(len(s.Voter)) {
		t.Fatalf("counts %d != voters %d", got, len(s.Voter))
	}
	if len(s.Voter) != 50 {
		t.Fatalf("expected 50 unique voters, got %d", len(s.Voter))
	}
}

func TestSurveyRepoReturnsCopies(t *testing.T) {
	repo := NewSurveyRepo()
	ctx := context.Background()
	id, _ := repo.Create(ctx, &survey.Survey{Title: "T", Status: survey.StatusPublish})

	s, _ := repo.GetByID(ctx, id)
	s.Title = "mutated"
	s.Voter = append(s.Voter, survey.Voter{UserEmail: "x@x.com"})

	again, _ := repo.GetByID(ctx, id)
	if again.Title != "T" || len(again.Voter) != 0 {
		t.Fatalf("stored survey was mutated through a returned copy: %+v", again)
	}
}

func TestSurveyRepoConditionalUpdates(t *testing.T) {
	repo := NewSurveyRepo()
	ctx := context.Background()
	id, _ := repo.Create(ctx, &survey.Survey{Title: "T", Status: survey.StatusDraft, CreatedAt: time.Now()})

	if err := repo.AddVote(ctx, id, survey.Voter{Vote: survey.ChoiceYes, UserEmail: "a@x.com"}, nil); !errors.Is(err, survey.ErrConditionFailed) {
		t.Fatalf("expected condition failure for draft survey, got %v", err)
	}
	if err := repo.SetStatus(ctx, id, survey.StatusPublish, survey.StatusClosed, nil); !errors.Is(err, survey.ErrConditionFailed) {
		t.Fatalf("expected cas failure, got %v", err)
	}
	if err := repo.SetStatus(ctx, "missing", survey.StatusDraft, survey.StatusClosed, nil); !errors.Is(err, survey.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.AddReport(ctx, id, survey.Report{UserEmail: "d@x.com"}); err != nil {
		t.Fatalf("first report: %v", err)
	}
	if err := repo.AddReport(ctx, id, survey.Report{UserEmail: "d@x.com"}); !errors.Is(err, survey.ErrConditionFailed) {
		t.Fatalf("expected duplicate report rejection, got %v", err)
	}
}

func TestUserRepoUniqueEmail(t *testing.T) {
	repo := NewUserRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, &user.User{Email: "a@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, &user.User{Email: "a@x.com"}); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
