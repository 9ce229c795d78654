package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"opinex/internal/config"
	"opinex/internal/domain/survey"
	"opinex/internal/domain/user"
	"opinex/internal/platform/logger"
	"opinex/internal/repository"
)

var demoSurveys = []survey.CreateInput{
	{Title: "Library hours", Category: "campus", QuestionTitle: "Should the library stay open 24/7 during exams?"},
	{Title: "Remote Fridays", Category: "work", QuestionTitle: "Would you like Fridays to be remote by default?"},
	{Title: "Dark mode", Category: "product", QuestionTitle: "Should dark mode be the default theme?"},
}

func main() {
	email := flag.String("email", "admin@opinex.local", "account email")
	password := flag.String("password", "", "account password (min 6 characters)")
	name := flag.String("name", "Opinex Admin", "display name")
	role := flag.String("role", string(user.RoleAdmin), "role to grant: user or admin")
	demo := flag.Bool("demo", false, "also create a few published demo surveys owned by the account")
	flag.Parse()

	cfg := config.Load()
	lg := logger.New(cfg.LogLevel, "opinex-seed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := repository.Open(ctx, cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("store connect error")
	}
	defer store.Close(context.Background())

	users := user.NewService(store.Users)
	u, err := users.Register(ctx, user.RegisterInput{Email: *email, Password: *password, Name: *name})
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		lg.Info().Str("email", *email).Msg("user exists, updating role only")
		u, err = users.UpdateRoleByEmail(ctx, *email, user.Role(*role))
	case err == nil:
		u, err = users.UpdateRole(ctx, u.ID, user.Role(*role))
	}
	if err != nil {
		lg.Fatal().Err(err).Msg("seed user")
	}
	lg.Info().Str("email", u.Email).Str("role", string(u.Role)).Msg("user ready")

	if !*demo {
		return
	}
	surveys := survey.NewService(store.Surveys)
	owner := survey.Actor{Email: u.Email, Name: u.Name}
	for _, in := range demoSurveys {
		id, err := surveys.Create(ctx, owner, in)
		if err != nil {
			lg.Fatal().Err(err).Str("title", in.Title).Msg("seed survey")
		}
		lg.Info().Str("id", id).Str("title", in.Title).Msg("survey created")
	}
}
