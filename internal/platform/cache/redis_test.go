package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"opinex/internal/domain/survey"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	c := New(ctx, "", zerolog.Nop())
	if c.Enabled() {
		t.Fatalf("expected disabled cache")
	}
	if err := c.SetSurveys(ctx, survey.CacheKeyFeatured, []survey.Survey{{ID: "1"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := c.GetSurveys(ctx, survey.CacheKeyFeatured); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.InvalidateRankings(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var nilCache *SurveyCache
	if nilCache.Enabled() {
		t.Fatalf("nil cache must report disabled")
	}
}

func TestInvalidURLDisablesCache(t *testing.T) {
	c := New(context.Background(), "not a url", zerolog.Nop())
	if c.Enabled() {
		t.Fatalf("expected disabled cache")
	}
}

func TestRoundTripAgainstRedis(t *testing.T) {
	url := os.Getenv("OPINEX_TEST_REDIS_URL")
	if url == "" {
		t.Skip("OPINEX_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	rdb := redis.NewClient(opts)
	c := NewWithClient(rdb, time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	in := []survey.Survey{{ID: "a", Title: "T", YesCount: 3, Voter: []survey.Voter{}}}
	if err := c.SetSurveys(ctx, survey.CacheKeyLatest, in); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.GetSurveys(ctx, survey.CacheKeyLatest)
	if err != nil || !ok || len(got) != 1 || got[0].ID != "a" || got[0].YesCount != 3 {
		t.Fatalf("unexpected cached value %+v ok=%v err=%v", got, ok, err)
	}
	if err := c.InvalidateRankings(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := c.GetSurveys(ctx, survey.CacheKeyLatest); ok {
		t.Fatalf("expected miss after invalidation")
	}
}
