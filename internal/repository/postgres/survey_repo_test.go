package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"opinex/internal/domain/survey"
	"opinex/internal/domain/user"
	"opinex/internal/platform/database"
)

func setupDB(t *testing.T) (*SurveyRepo, *UserRepo) {
	t.Helper()
	dsn := os.Getenv("OPINEX_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("OPINEX_TEST_DB_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	db, err := database.NewPostgres(ctx, dsn, zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := db.ExecContext(ctx, `TRUNCATE surveys, users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSurveyRepo(db), NewUserRepo(db)
}

func TestSurveyRepoVoteLifecycle(t *testing.T) {
	surveys, _ := setupDB(t)
	ctx := context.Background()

	id, err := surveys.Create(ctx, &survey.Survey{
		SurveyorEmail: "a@x.com",
		Title:         "T",
		Status:        survey.StatusPublish,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c := &survey.Comment{Comment: "hi", UserEmail: "b@x.com"}
	if err := surveys.AddVote(ctx, id, survey.Voter{Vote: survey.ChoiceYes, UserEmail: "b@x.com"}, c); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := surveys.AddVote(ctx, id, survey.Voter{Vote: survey.ChoiceNo, UserEmail: "b@x.com"}, nil); !errors.Is(err, survey.ErrConditionFailed) {
		t.Fatalf("expected duplicate vote to fail condition, got %v", err)
	}
	if err := surveys.AddVote(ctx, uuid.NewString(), survey.Voter{Vote: survey.ChoiceNo, UserEmail: "c@x.com"}, nil); !errors.Is(err, survey.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	s, err := surveys.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.YesCount != 1 || s.NoCount != 0 || len(s.Voter) != 1 || len(s.Comment) != 1 {
		t.Fatalf("unexpected survey %+v", s)
	}

	if err := surveys.AddReport(ctx, id, survey.Report{UserEmail: "d@x.com", Reason: "spam"}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if err := surveys.AddReport(ctx, id, survey.Report{UserEmail: "d@x.com"}); !errors.Is(err, survey.ErrConditionFailed) {
		t.Fatalf("expected duplicate report to fail condition, got %v", err)
	}

	if err := surveys.SetStatus(ctx, id, survey.StatusDraft, survey.StatusClosed, nil); !errors.Is(err, survey.ErrConditionFailed) {
		t.Fatalf("expected status cas failure, got %v", err)
	}

	yes, err := surveys.FindByVoter(ctx, survey.Filter{UserEmail: "b@x.com", Vote: survey.ChoiceYes})
	if err != nil || len(yes) != 1 {
		t.Fatalf("find by voter yes: %d %v", len(yes), err)
	}
	no, err := surveys.FindByVoter(ctx, survey.Filter{UserEmail: "b@x.com", Vote: survey.ChoiceNo})
	if err != nil || len(no) != 0 {
		t.Fatalf("find by voter no: %d %v", len(no), err)
	}
	top, err := surveys.TopByVotes(ctx, survey.RankingLimit)
	if err != nil || len(top) != 1 || top[0].ID != id {
		t.Fatalf("top by votes: %+v %v", top, err)
	}
}

func TestUserRepoDuplicateEmail(t *testing.T) {
	_, users := setupDB(t)
	ctx := context.Background()

	if err := users.Create(ctx, &user.User{Email: "a@x.com", Role: user.RoleUser, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := users.Create(ctx, &user.User{Email: "a@x.com", CreatedAt: time.Now()}); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	if err := users.UpdateRole(ctx, uuid.NewString(), user.RoleAdmin); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
