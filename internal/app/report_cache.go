// internal/app/report_cache.go
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/cassidycr/accildatabase/internal/reports"
)

const dashboardKeyPrefix = "dashboard:"

// ReportCache keeps recently built dashboards in redis. Reports tolerate
// snapshot staleness, so cache misses and failures fall through to a live
// aggregation; the cache is never load-bearing.
type ReportCache struct {
	enabled bool
	redis   *redis.Client
	ttl     time.Duration
}

func NewReportCache(config *Config) (*ReportCache, error) {
	if !config.Cache.Enabled {
		return &ReportCache{enabled: false}, nil
	}

	opt, err := redis.ParseURL(config.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := time.Duration(config.Cache.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &ReportCache{
		enabled: true,
		redis:   client,
		ttl:     ttl,
	}, nil
}

func (c *ReportCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

func (c *ReportCache) Get(ctx context.Context, key string) (*reports.Dashboard, bool) {
	if !c.enabled {
		return nil, false
	}

	data, err := c.redis.Get(ctx, dashboardKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug.Printf("Report cache read failed: %v", err)
		return nil, false
	}

	var dash reports.Dashboard
	if err := json.Unmarshal(data, &dash); err != nil {
		logger.Debug.Printf("Report cache held invalid payload for %s: %v", key, err)
		return nil, false
	}
	return &dash, true
}

func (c *ReportCache) Set(ctx context.Context, key string, dash reports.Dashboard) {
	if !c.enabled {
		return
	}

	data, err := json.Marshal(dash)
	if err != nil {
		logger.Debug.Printf("Failed to marshal dashboard for cache: %v", err)
		return
	}
	if err := c.redis.Set(ctx, dashboardKeyPrefix+key, data, c.ttl).Err(); err != nil {
		logger.Debug.Printf("Report cache write failed: %v", err)
	}
}

// Invalidate drops every cached dashboard after a mutation.
func (c *ReportCache) Invalidate(ctx context.Context) {
	if !c.enabled {
		return
	}

	keys, err := c.redis.Keys(ctx, dashboardKeyPrefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		logger.Debug.Printf("Report cache invalidation failed: %v", err)
	}
}
