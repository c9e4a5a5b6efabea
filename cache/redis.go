// cache/redis.go
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
)

const (
	tagKeyPrefix = "analytics:tag:"
	tagIndexKey  = "analytics:tags"
)

// RedisBackend stores entries in redis with per-key TTLs. Category-scoped
// invalidation is served by tag sets: each Set adds the entry key to its
// category's set, and Invalidate deletes every member of that set. Category
// labels are free-form user input, so they are slugified before becoming part
// of a redis key.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func tagKey(category string) string {
	return tagKeyPrefix + slug.Make(category)
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, payload []byte, ttl time.Duration, category string) error {
	tag := tagKey(category)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, payload, ttl)
	pipe.SAdd(ctx, tag, key)
	pipe.SAdd(ctx, tagIndexKey, tag)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisBackend) Invalidate(ctx context.Context, category string) error {
	if category == "" {
		tags, err := r.client.SMembers(ctx, tagIndexKey).Result()
		if err != nil {
			return err
		}
		for _, tag := range tags {
			if err := r.dropTag(ctx, tag); err != nil {
				return err
			}
		}
		return r.client.Del(ctx, tagIndexKey).Err()
	}
	return r.dropTag(ctx, tagKey(category))
}

func (r *RedisBackend) dropTag(ctx context.Context, tag string) error {
	keys, err := r.client.SMembers(ctx, tag).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return r.client.Del(ctx, tag).Err()
}

// Sweep walks the tag sets, drops set members whose keys already expired, and
// deletes entries the callback marks stale. Redis TTLs handle plain expiry on
// their own; this pass keeps the tag sets from accumulating dead members and
// clears entries orphaned by a version bump.
func (r *RedisBackend) Sweep(ctx context.Context, stale func(key string, payload []byte) bool) int {
	tags, err := r.client.SMembers(ctx, tagIndexKey).Result()
	if err != nil {
		return 0
	}

	removed := 0
	for _, tag := range tags {
		keys, err := r.client.SMembers(ctx, tag).Result()
		if err != nil {
			continue
		}
		for _, key := range keys {
			payload, err := r.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				r.client.SRem(ctx, tag, key)
				continue
			}
			if err != nil {
				continue
			}
			if stale(key, payload) {
				if r.client.Del(ctx, key).Err() == nil {
					r.client.SRem(ctx, tag, key)
					removed++
				}
			}
		}
	}
	return removed
}
