// Package redis provides the backtest result cache.
//
// A result is immutable per (series, strategy, parameters, capital)
// tuple, so the cache key is a digest of the canonical request encoding
// and entries never need invalidation — only expiry.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"quant-enginev1/internal/model"
)

const keyPrefix = "bt:result:"

// CacheConfig configures the Redis result cache.
type CacheConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // entry lifetime; 0 means no expiry
}

// Cache stores computed backtest results keyed by request digest.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// New creates a new result cache and pings the server.
func New(cfg CacheConfig) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[cache] connected to %s (ttl=%v)", cfg.Addr, cfg.TTL)
	return &Cache{client: client, ttl: cfg.TTL}, nil
}

// Key derives the cache key for a canonical request payload.
func Key(payload []byte) string {
	sum := sha256.Sum256(payload)
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get fetches a cached result. Returns (nil, false) on miss or any
// error — cache failures must never fail a request.
func (c *Cache) Get(ctx context.Context, key string) (*model.BacktestResult, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			log.Printf("[cache] get error: %v", err)
		}
		return nil, false
	}

	var res model.BacktestResult
	if err := json.Unmarshal(data, &res); err != nil {
		log.Printf("[cache] corrupt entry %s: %v", key, err)
		return nil, false
	}
	return &res, true
}

// Set stores a computed result. Best-effort: errors are logged, not returned.
func (c *Cache) Set(ctx context.Context, key string, res *model.BacktestResult) {
	data, err := json.Marshal(res)
	if err != nil {
		log.Printf("[cache] marshal error: %v", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("[cache] set error: %v", err)
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
