package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-cardgateway/app/factory"
	"github.com/vibast-solutions/ms-go-cardgateway/config"
)

const keyPrefix = "cardgateway:paysols:"

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

// CatalogCache keeps payment solution catalogs for a short TTL. Failures only cost a gateway round trip.
type CatalogCache struct {
	client redisClient
	ttl    time.Duration
	logger logrus.FieldLogger
}

func NewCatalogCache(client redisClient, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogCache{
		client: client,
		ttl:    ttl,
		logger: factory.NewModuleLogger("catalog-cache"),
	}
}

func CatalogKey(environment, currency, country string) string {
	return keyPrefix + strings.ToLower(environment) + ":" + strings.ToUpper(currency) + ":" + strings.ToUpper(country)
}

func (c *CatalogCache) Get(ctx context.Context, key string) (map[string]string, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("catalog cache read failed")
		return nil, false
	}

	var catalog map[string]string
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		c.logger.WithError(err).Warn("catalog cache entry is corrupt")
		return nil, false
	}
	return catalog, true
}

func (c *CatalogCache) Set(ctx context.Context, key string, catalog map[string]string) {
	if len(catalog) == 0 {
		return
	}
	payload, err := json.Marshal(catalog)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("catalog cache write failed")
	}
}
