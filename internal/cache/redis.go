package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRedisPrefix namespaces cache keys in a shared Redis database.
const DefaultRedisPrefix = "pavecast:weather:"

// scanBatch is the COUNT hint used when walking the key space.
const scanBatch = 200

// RedisConfig configures a Redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Logger   zerolog.Logger
}

// Redis is a Store backed by Redis. Values are stored as JSON entries and
// expire through the Redis key TTL.
type Redis[V any] struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
	now    func() time.Time
}

// NewRedisClient creates the go-redis client for cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// NewRedis wraps client in a Store.
func NewRedis[V any](client *redis.Client, cfg RedisConfig) *Redis[V] {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis[V]{
		client: client,
		prefix: prefix,
		logger: cfg.Logger.With().Str("component", "redis_cache").Logger(),
		now:    time.Now,
	}
}

func (r *Redis[V]) key(key string) string {
	return r.prefix + key
}

// Ping checks the connection to Redis.
func (r *Redis[V]) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns a fresh value. Redis errors and undecodable entries are misses.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return zero, false
	}

	var entry Entry[V]
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		r.Invalidate(ctx, key)
		return zero, false
	}
	if entry.Expired(r.now()) {
		return zero, false
	}
	return entry.Value, true
}

// Put stores value for ttl. A non-positive ttl stores nothing.
func (r *Redis[V]) Put(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := r.now()

	raw, err := json.Marshal(Entry[V]{
		Key:       key,
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache entry not encodable")
		return
	}
	if err := r.client.Set(ctx, r.key(key), raw, ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate removes a single key.
func (r *Redis[V]) Invalidate(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
}

// Clear removes every key under the store prefix.
func (r *Redis[V]) Clear(ctx context.Context) {
	keys, err := r.scan(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn().Err(err).Msg("cache clear failed")
	}
}

// EvictExpired is a no-op: Redis expires keys itself.
func (r *Redis[V]) EvictExpired(context.Context) int {
	return 0
}

// Len returns the number of keys under the store prefix.
func (r *Redis[V]) Len(ctx context.Context) int {
	keys, err := r.scan(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("cache scan failed")
		return 0
	}
	return len(keys)
}

func (r *Redis[V]) scan(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
