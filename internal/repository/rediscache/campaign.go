// Package rediscache adds a read-through Redis cache in front of any
// campaign config store. Configs change rarely and are re-validated by the
// backing store, so a short TTL keeps the hot path off S3/Postgres without a
// config-refresh mechanism.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/eligibility-api/internal/campaign"
)

// ConfigLister is any source of campaign configs.
type ConfigLister interface {
	ListConfigs(ctx context.Context) ([]campaign.Config, error)
}

// CampaignCache caches the full config list under a single key.
type CampaignCache struct {
	inner ConfigLister
	rdb   *redis.Client
	key   string
	ttl   time.Duration
}

// New creates a cache over the inner store.
func New(inner ConfigLister, rdb *redis.Client, key string, ttl time.Duration) *CampaignCache {
	if key == "" {
		key = "eligibility:campaign-configs"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CampaignCache{inner: inner, rdb: rdb, key: key, ttl: ttl}
}

// ListConfigs returns the cached config list, falling back to the inner
// store on a miss. Cache failures are non-fatal; the inner store answers.
func (c *CampaignCache) ListConfigs(ctx context.Context) ([]campaign.Config, error) {
	cached, err := c.rdb.Get(ctx, c.key).Bytes()
	if err == nil {
		var configs []campaign.Config
		if jsonErr := json.Unmarshal(cached, &configs); jsonErr == nil {
			return configs, nil
		}
		// Corrupt cache entry; fall through to the store and overwrite.
	} else if err != redis.Nil {
		log.Printf("[rediscache] get %s: %v", c.key, err)
	}

	configs, err := c.inner.ListConfigs(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(configs)
	if err != nil {
		return nil, fmt.Errorf("marshaling campaign configs for cache: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		log.Printf("[rediscache] set %s: %v", c.key, err)
	}
	return configs, nil
}

// Invalidate drops the cached list.
func (c *CampaignCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, c.key).Err()
}
