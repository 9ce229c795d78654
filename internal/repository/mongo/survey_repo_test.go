package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"opinex/internal/domain/survey"
	"opinex/internal/domain/user"
	"opinex/internal/platform/database"
)

// setupDB connects to OPINEX_TEST_MONGO_URI and returns a throwaway database.
func setupDB(t *testing.T) (*SurveyRepo, *UserRepo) {
	t.Helper()
	uri := os.Getenv("OPINEX_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("OPINEX_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	dbName := "opinex_test_" + primitive.NewObjectID().Hex()
	client, db, err := database.NewMongo(ctx, uri, dbName, zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
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
		Voter:         []survey.Voter{},
		Comment:       []survey.Comment{},
		ReportedBy:    []survey.Report{},
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
	if err := surveys.AddVote(ctx, primitive.NewObjectID().Hex(), survey.Voter{Vote: survey.ChoiceNo, UserEmail: "b@x.com"}, nil); !errors.Is(err, survey.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	s, err := surveys.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.YesCount != 1 || len(s.Voter) != 1 || len(s.Comment) != 1 {
		t.Fatalf("unexpected survey %+v", s)
	}

	if err := surveys.SetStatus(ctx, id, survey.StatusDraft, survey.StatusClosed, nil); !errors.Is(err, survey.ErrConditionFailed) {
		t.Fatalf("expected status cas failure, got %v", err)
	}
	if err := surveys.SetStatus(ctx, id, survey.StatusPublish, survey.StatusClosed, nil); err != nil {
		t.Fatalf("close: %v", err)
	}

	voted, err := surveys.FindByVoter(ctx, survey.Filter{UserEmail: "b@x.com", Vote: survey.ChoiceYes})
	if err != nil || len(voted) != 1 {
		t.Fatalf("find by voter: %d %v", len(voted), err)
	}
}

func TestUserRepoDuplicateEmail(t *testing.T) {
	_, users := setupDB(t)
	ctx := context.Background()

	if err := users.Create(ctx, &user.User{Email: "a@x.com", Role: user.RoleUser}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := users.Create(ctx, &user.User{Email: "a@x.com"}); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	if _, err := users.GetByID(ctx, "not-an-object-id"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
