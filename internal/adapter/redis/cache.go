// Package redis caches gauge thresholds in Redis in front of a slower
// threshold provider.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-decision-engine/internal/config"
	"github.com/couchcryptid/flood-decision-engine/internal/domain"
	"github.com/couchcryptid/flood-decision-engine/internal/observability"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "flood:thresholds:"

// NewClient creates a Redis client from the service configuration.
func NewClient(cfg *config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// CachedThresholdProvider wraps a ThresholdProvider with a Redis read-through
// cache. Redis failures are logged and fall through to the inner provider.
type CachedThresholdProvider struct {
	inner   domain.ThresholdProvider
	client  *goredis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedThresholdProvider creates a cache decorator around inner.
func NewCachedThresholdProvider(inner domain.ThresholdProvider, client *goredis.Client, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *CachedThresholdProvider {
	return &CachedThresholdProvider{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Thresholds returns cached thresholds for gaugeID, loading and caching them
// on a miss. Gauges without thresholds are cached too.
func (c *CachedThresholdProvider) Thresholds(ctx context.Context, gaugeID string) (domain.Thresholds, error) {
	key := keyPrefix + gaugeID

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var th domain.Thresholds
		if jsonErr := json.Unmarshal(cached, &th); jsonErr == nil {
			c.metrics.ThresholdCache.WithLabelValues("hit").Inc()
			return th, nil
		}
		c.logger.Warn("discarding corrupt threshold cache entry", "gauge_id", gaugeID)
	case !errors.Is(err, goredis.Nil):
		c.logger.Warn("threshold cache read failed", "gauge_id", gaugeID, "error", err)
	}
	c.metrics.ThresholdCache.WithLabelValues("miss").Inc()

	th, err := c.inner.Thresholds(ctx, gaugeID)
	if err != nil {
		return domain.Thresholds{}, err
	}

	data, err := json.Marshal(th)
	if err != nil {
		return th, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("threshold cache write failed", "gauge_id", gaugeID, "error", err)
	}
	return th, nil
}
