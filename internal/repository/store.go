package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"opinex/internal/config"
	"opinex/internal/domain/survey"
	"opinex/internal/domain/user"
	"opinex/internal/platform/database"
	"opinex/internal/repository/memory"
	mongorepo "opinex/internal/repository/mongo"
	"opinex/internal/repository/postgres"
)

// Store bundles the repositories of the configured driver.
type Store struct {
	Users   user.Repository
	Surveys survey.Repository
	// Ping reports whether the backing database answers.
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// Open connects the driver selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Store, error) {
	log = log.With().Str("driver", cfg.StoreDriver).Logger()

	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("store connected")
		return &Store{
			Users:   mongorepo.NewUserRepo(db),
			Surveys: mongorepo.NewSurveyRepo(db),
			Ping: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			Close: client.Disconnect,
		}, nil

	case config.DriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.DB_DSN, log)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("store connected")
		return &Store{
			Users:   postgres.NewUserRepo(db),
			Surveys: postgres.NewSurveyRepo(db),
			Ping:    db.PingContext,
			Close:   func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return &Store{
			Users:   memory.NewUserRepo(),
			Surveys: memory.NewSurveyRepo(),
			Ping:    func(context.Context) error { return nil },
			Close:   func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
