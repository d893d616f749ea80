package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"certcy/career-api/internal/config"
	"certcy/career-api/internal/models"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (RecommendationCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache, err := NewRedisRecommendationCache(context.Background(), config.RedisConfig{Addr: mr.Addr(), TTL: ttl})
	if err != nil {
		t.Fatalf("NewRedisRecommendationCache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestRedisRecommendationCacheRoundTrip(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Hour)
	ctx := context.Background()
	userID := uuid.New()
	key := RecommendationCacheKey(userID)

	if key != "certcy:recommendations:"+userID.String() {
		t.Fatalf("unexpected cache key %q", key)
	}

	recs, err := cache.Get(ctx, userID)
	if err != nil || recs != nil {
		t.Fatalf("expected miss as (nil, nil), got %v, %v", recs, err)
	}

	in := []models.CareerRecommendation{
		{ID: "data-engineer", Title: "Data Engineer", Match: 88},
		{ID: "ml-engineer", Title: "ML Engineer", Match: 75},
	}
	if err := cache.Set(ctx, userID, in); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists(key) {
		t.Fatalf("expected key %s to be stored", key)
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %s", ttl)
	}

	out, err := cache.Get(ctx, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(out) != 2 || out[0].ID != "data-engineer" || out[1].Title != "ML Engineer" || out[0].Match != 88 {
		t.Fatalf("unexpected cached recommendations %+v", out)
	}
	for _, r := range out {
		if r.UserID != userID {
			t.Fatalf("expected cached rows to carry the user id, got %s", r.UserID)
		}
	}

	if other, err := cache.Get(ctx, uuid.New()); err != nil || other != nil {
		t.Fatalf("expected another user's lookup to miss, got %v, %v", other, err)
	}

	if err := cache.Delete(ctx, userID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("expected key to be deleted")
	}
}

func TestRedisRecommendationCacheExpiry(t *testing.T) {
	cache, mr := newTestRedisCache(t, 0)
	ctx := context.Background()
	userID := uuid.New()
	key := RecommendationCacheKey(userID)

	if err := cache.Set(ctx, userID, []models.CareerRecommendation{{ID: "a", Title: "A"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL(key); ttl != 24*time.Hour {
		t.Fatalf("expected default ttl 24h, got %s", ttl)
	}

	mr.FastForward(25 * time.Hour)
	recs, err := cache.Get(ctx, userID)
	if err != nil || recs != nil {
		t.Fatalf("expected expired entry to miss, got %v, %v", recs, err)
	}
}

func TestRedisRecommendationCacheCorruptValue(t *testing.T) {
	cache, mr := newTestRedisCache(t, time.Hour)
	userID := uuid.New()

	if err := mr.Set(RecommendationCacheKey(userID), "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := cache.Get(context.Background(), userID); err == nil {
		t.Fatalf("expected decode error for corrupt value")
	}
}

func TestNewRedisRecommendationCacheRequiresAddress(t *testing.T) {
	if _, err := NewRedisRecommendationCache(context.Background(), config.RedisConfig{Addr: "  "}); err == nil {
		t.Fatalf("expected error for empty address")
	}

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisRecommendationCache(context.Background(), config.RedisConfig{Addr: addr}); err == nil {
		t.Fatalf("expected ping failure for a stopped server")
	}
}
