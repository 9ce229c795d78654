package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"opinex/internal/domain/survey"
)

// RankingTTL bounds how stale featured and latest lists can get when an
// invalidation is missed.
const RankingTTL = time.Minute

// SurveyCache is a Redis cache-aside layer for the survey rankings. A nil
// client turns every operation into a no-op.
type SurveyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to redisURL. An empty or unreachable URL yields a disabled cache.
func New(ctx context.Context, redisURL string, log zerolog.Logger) *SurveyCache {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &SurveyCache{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &SurveyCache{}
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &SurveyCache{}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &SurveyCache{rdb: rdb, ttl: RankingTTL}
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *SurveyCache {
	if ttl <= 0 {
		ttl = RankingTTL
	}
	return &SurveyCache{rdb: rdb, ttl: ttl}
}

func (c *SurveyCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Ping reports Redis reachability; a disabled cache is always healthy.
func (c *SurveyCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *SurveyCache) GetSurveys(ctx context.Context, key string) ([]survey.Survey, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var res []survey.Survey
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (c *SurveyCache) SetSurveys(ctx context.Context, key string, surveys []survey.Survey) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(surveys)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// InvalidateRankings drops the featured and latest lists.
func (c *SurveyCache) InvalidateRankings(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Del(ctx, survey.CacheKeyFeatured, survey.CacheKeyLatest).Err()
}

func (c *SurveyCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
