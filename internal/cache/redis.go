// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/agentworld/simbridge/internal/log"
)

const redisOpTimeout = 2 * time.Second

// Redis backs the cache with a shared server so several host processes can
// reuse resolved transforms. Values round-trip through JSON.
type Redis struct {
	client *redis.Client
	lg     zerolog.Logger
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// RedisConfig is the connection subset we need.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRedis connects and pings. Callers fall back to NewMemory on error.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	lg := log.WithComponent("cache")
	lg.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("redis cache connected")
	return &Redis{client: client, lg: lg}, nil
}

func (c *Redis) Get(key string) (any, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.misses.Add(1)
		return nil, false
	}
	if err != nil {
		c.lg.Warn().Err(err).Str("key", key).Msg("redis get failed")
		c.misses.Add(1)
		return nil, false
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		c.lg.Warn().Err(err).Str("key", key).Msg("cached value undecodable")
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return value, true
}

func (c *Redis) Set(key string, value any, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := json.Marshal(value)
	if err != nil {
		c.lg.Warn().Err(err).Str("key", key).Msg("value not serializable")
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.lg.Warn().Err(err).Str("key", key).Msg("redis set failed")
		return
	}
	c.sets.Add(1)
}

func (c *Redis) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.lg.Warn().Err(err).Str("key", key).Msg("redis delete failed")
	}
}

func (c *Redis) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		c.lg.Warn().Err(err).Msg("redis flush failed")
	}
}

func (c *Redis) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
	}
}

func (c *Redis) Close() {
	if err := c.client.Close(); err != nil {
		c.lg.Warn().Err(err).Msg("redis close failed")
	}
}
