package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyTTL outlives the day so late releases still find their key.
const keyTTL = 48 * time.Hour

// Redis shares the daily counter across engine processes.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewRedis(rdb *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "jobapply:quota"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) key(day string) string { return r.prefix + ":" + day }

// Reserve increments first and gives the slot back when that overshoots, so
// two engines racing for the last slot cannot both win.
func (r *Redis) Reserve(ctx context.Context, day string, limit int) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	k := r.key(day)
	n, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("quota incr: %w", err)
	}
	if n == 1 {
		if err := r.rdb.Expire(ctx, k, keyTTL).Err(); err != nil {
			return false, fmt.Errorf("quota expire: %w", err)
		}
	}
	if n > int64(limit) {
		if err := r.rdb.Decr(ctx, k).Err(); err != nil {
			return false, fmt.Errorf("quota decr: %w", err)
		}
		return false, nil
	}
	return true, nil
}

func (r *Redis) Release(ctx context.Context, day string) error {
	n, err := r.rdb.Decr(ctx, r.key(day)).Result()
	if err != nil {
		return fmt.Errorf("quota decr: %w", err)
	}
	if n < 0 {
		return r.rdb.Set(ctx, r.key(day), 0, keyTTL).Err()
	}
	return nil
}

func (r *Redis) Used(ctx context.Context, day string) (int, error) {
	n, err := r.rdb.Get(ctx, r.key(day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
