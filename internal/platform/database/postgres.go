package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"opinex/internal/retry"
)

var connectPolicy = retry.Policy{
	Attempts:  6,
	BaseDelay: 500 * time.Millisecond,
	MaxDelay:  4 * time.Second,
}

// NewPostgres opens a pgx-backed *sql.DB, waits for it to answer pings and
// applies the survey schema.
func NewPostgres(ctx context.Context, dsn string, log zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	policy := connectPolicy
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("postgres not ready")
	}
	err = retry.DoWithRetry(ctx, policy, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if err := CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// CreateSchema is safe to call repeatedly.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL DEFAULT '',
    photo_url     TEXT NOT NULL DEFAULT '',
    role          TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS surveys (
    id                   TEXT PRIMARY KEY,
    surveyor_email       TEXT NOT NULL,
    title                TEXT NOT NULL,
    description          TEXT NOT NULL DEFAULT '',
    category             TEXT NOT NULL DEFAULT '',
    deadline             TEXT NOT NULL DEFAULT '',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    question_title       TEXT NOT NULL DEFAULT '',
    question_description TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'publish'
        CHECK (status IN ('draft', 'publish', 'unpublish', 'closed')),
    feedback             TEXT NOT NULL DEFAULT '',
    yes_count            BIGINT NOT NULL DEFAULT 0 CHECK (yes_count >= 0),
    no_count             BIGINT NOT NULL DEFAULT 0 CHECK (no_count >= 0),
    voter                JSONB NOT NULL DEFAULT '[]'::jsonb,
    comment              JSONB NOT NULL DEFAULT '[]'::jsonb,
    reported_by          JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_surveys_owner ON surveys(surveyor_email);
CREATE INDEX IF NOT EXISTS idx_surveys_status_created ON surveys(status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_surveys_voter ON surveys USING GIN (voter jsonb_path_ops);
CREATE INDEX IF NOT EXISTS idx_surveys_comment ON surveys USING GIN (comment jsonb_path_ops);
CREATE INDEX IF NOT EXISTS idx_surveys_reported_by ON surveys USING GIN (reported_by jsonb_path_ops);
`
