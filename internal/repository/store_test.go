package repository

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"opinex/internal/config"
	"opinex/internal/domain/survey"
)

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, config.Config{StoreDriver: config.DriverMemory}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close(ctx)

	if err := st.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	id, err := st.Surveys.Create(ctx, &survey.Survey{Title: "T", Status: survey.StatusPublish})
	if err != nil || id == "" {
		t.Fatalf("create: %q %v", id, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.Config{StoreDriver: "sqlite"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
