package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"projhub/internal/model"
)

const (
	// StatsCachePrefix is the key prefix for project stats caches
	StatsCachePrefix = "stats:project:"

	// StatsCacheTTL bounds staleness for the stats fast path. Every
	// interaction mutation also invalidates the touched project, so the TTL
	// is a backstop, not the primary freshness mechanism.
	StatsCacheTTL = 5 * time.Minute
)

// ProjectStatsCache defines the interface for project stats cache operations.
// Using an interface enables testing with mocks and potential future backends.
type ProjectStatsCache interface {
	// Get retrieves cached stats for a project.
	// Returns (stats, found, error). found=false on miss or TTL expiry.
	Get(ctx context.Context, projectID int64) (*model.ProjectStats, bool, error)

	// Set stores stats for a project with the standard TTL.
	Set(ctx context.Context, projectID int64, stats model.ProjectStats) error

	// Invalidate removes a project's cached stats. Called after every
	// committed mutation that changes the project's counters.
	Invalidate(ctx context.Context, projectID int64) error
}

// RedisStatsCache implements ProjectStatsCache using Redis strings.
type RedisStatsCache struct {
	client *redis.Client
}

// NewStatsCache creates a new ProjectStatsCache backed by Redis.
func NewStatsCache(client *redis.Client) ProjectStatsCache {
	return &RedisStatsCache{client: client}
}

// statsKey returns the Redis key for a project's stats cache.
func statsKey(projectID int64) string {
	return fmt.Sprintf("%s%d", StatsCachePrefix, projectID)
}

func (c *RedisStatsCache) Get(ctx context.Context, projectID int64) (*model.ProjectStats, bool, error) {
	key := statsKey(projectID)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		log.Printf("[StatsCache] Get: project=%d MISS", projectID)
		return nil, false, nil
	}
	if err != nil {
		log.Printf("[StatsCache] Get FAILED: project=%d err=%v", projectID, err)
		return nil, false, fmt.Errorf("get project stats: %w", err)
	}

	var stats model.ProjectStats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		log.Printf("[StatsCache] Get parse error: project=%d err=%v", projectID, err)
		return nil, false, fmt.Errorf("parse project stats: %w", err)
	}

	log.Printf("[StatsCache] Get OK: project=%d likes=%d comments=%d", projectID, stats.LikeCount, stats.CommentCount)
	return &stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, projectID int64, stats model.ProjectStats) error {
	key := statsKey(projectID)

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("serialize project stats: %w", err)
	}

	if err := c.client.Set(ctx, key, data, StatsCacheTTL).Err(); err != nil {
		log.Printf("[StatsCache] Set FAILED: project=%d err=%v", projectID, err)
		return fmt.Errorf("set project stats: %w", err)
	}

	log.Printf("[StatsCache] Set OK: project=%d likes=%d comments=%d", projectID, stats.LikeCount, stats.CommentCount)
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, projectID int64) error {
	key := statsKey(projectID)

	removed, err := c.client.Del(ctx, key).Result()
	if err != nil {
		log.Printf("[StatsCache] Invalidate FAILED: project=%d err=%v", projectID, err)
		return fmt.Errorf("invalidate project stats: %w", err)
	}

	log.Printf("[StatsCache] Invalidate OK: project=%d removed=%d", projectID, removed)
	return nil
}
