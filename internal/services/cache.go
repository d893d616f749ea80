package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"certcy/career-api/internal/config"
	"certcy/career-api/internal/models"
)

const recommendationKeyPrefix = "certcy:recommendations:"

// RecommendationCache is a read-through cache of a user's stored recommendation
// set. A miss is reported as (nil, nil).
type RecommendationCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]models.CareerRecommendation, error)
	Set(ctx context.Context, userID uuid.UUID, recs []models.CareerRecommendation) error
	Delete(ctx context.Context, userID uuid.UUID) error
	Close() error
}

type redisRecommendationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRecommendationCache(ctx context.Context, cfg config.RedisConfig) (RecommendationCache, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("missing redis address")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &redisRecommendationCache{rdb: rdb, ttl: ttl}, nil
}

func RecommendationCacheKey(userID uuid.UUID) string {
	return recommendationKeyPrefix + userID.String()
}

func (c *redisRecommendationCache) Get(ctx context.Context, userID uuid.UUID) ([]models.CareerRecommendation, error) {
	raw, err := c.rdb.Get(ctx, RecommendationCacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var recs []models.CareerRecommendation
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode cached recommendations: %w", err)
	}
	for i := range recs {
		recs[i].UserID = userID
	}
	return recs, nil
}

func (c *redisRecommendationCache) Set(ctx context.Context, userID uuid.UUID, recs []models.CareerRecommendation) error {
	raw, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, RecommendationCacheKey(userID), raw, c.ttl).Err()
}

func (c *redisRecommendationCache) Delete(ctx context.Context, userID uuid.UUID) error {
	return c.rdb.Del(ctx, RecommendationCacheKey(userID)).Err()
}

func (c *redisRecommendationCache) Close() error {
	return c.rdb.Close()
}

type noopRecommendationCache struct{}

// NewNoopRecommendationCache is used when Redis is not configured.
func NewNoopRecommendationCache() RecommendationCache { return noopRecommendationCache{} }

func (noopRecommendationCache) Get(context.Context, uuid.UUID) ([]models.CareerRecommendation, error) {
	return nil, nil
}

func (noopRecommendationCache) Set(context.Context, uuid.UUID, []models.CareerRecommendation) error {
	return nil
}

func (noopRecommendationCache) Delete(context.Context, uuid.UUID) error { return nil }

func (noopRecommendationCache) Close() error { return nil }
