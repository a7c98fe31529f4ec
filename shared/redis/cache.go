package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ViewCache is a generic JSON-backed Redis cache for read model projections.
// Bind it to a specific view type T; each instance holds a Redis client and an
// optional TTL (pass 0 for keys that should not expire).
type ViewCache[T any] struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewViewCache creates a ViewCache backed by the provided Redis client.
func NewViewCache[T any](client goredis.Cmdable, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl}
}

// Get retrieves and unmarshals a value from Redis.
// Returns (nil, false) on any miss or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.WarnContext(ctx, "view cache: dropping undecodable entry", "key", key, "error", err)
		return nil, false
	}
	return &v, true
}

// Set marshals value and stores it in Redis under key.
// A failed cache write is logged, not returned.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.ErrorContext(ctx, "view cache: marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.ErrorContext(ctx, "view cache: write failed", "key", key, "error", err)
	}
}

// generationTTL bounds how long a generation counter outlives its last
// invalidation. It only needs to exceed the slowest cold read.
const generationTTL = 24 * time.Hour

func generationKey(key string) string {
	return key + ":gen"
}

// Generation returns the invalidation counter for key. Read it before loading
// the value from the source of truth and pass it to SetIfGeneration.
// An empty result means the counter could not be read.
func (c *ViewCache[T]) Generation(ctx context.Context, key string) string {
	gen, err := c.client.Get(ctx, generationKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "0"
	}
	if err != nil {
		slog.WarnContext(ctx, "view cache: generation read failed", "key", key, "error", err)
		return ""
	}
	return gen
}

// fillScript writes KEYS[1] only while the counter at KEYS[2] still equals
// ARGV[1]. A missing counter reads as "0".
var fillScript = goredis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// SetIfGeneration stores value only if key has not been deleted since
// generation was read, so a slow cold read cannot overwrite a newer
// invalidation. It reports whether the value was written.
func (c *ViewCache[T]) SetIfGeneration(ctx context.Context, key, generation string, value *T) bool {
	if generation == "" {
		return false
	}
	data, err := json.Marshal(value)
	if err != nil {
		slog.ErrorContext(ctx, "view cache: marshal failed", "key", key, "error", err)
		return false
	}
	written, err := fillScript.Run(ctx, c.client,
		[]string{key, generationKey(key)},
		generation, data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		slog.ErrorContext(ctx, "view cache: guarded write failed", "key", key, "error", err)
		return false
	}
	return written == 1
}

// Delete removes keys from Redis and bumps their generation counters, which
// voids any SetIfGeneration still holding an older generation.
func (c *ViewCache[T]) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
			pipe.Expire(ctx, generationKey(key), generationTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "view cache: delete failed", "keys", keys, "error", err)
	}
}

// Cache is the read-model contract satisfied by ViewCache.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (*T, bool)
	Set(ctx context.Context, key string, value *T)
	Generation(ctx context.Context, key string) string
	SetIfGeneration(ctx context.Context, key, generation string, value *T) bool
	Delete(ctx context.Context, keys ...string)
}

var _ Cache[struct{}] = (*ViewCache[struct{}])(nil)
