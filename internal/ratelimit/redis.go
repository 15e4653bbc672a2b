package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps window counters in Redis so the ceiling holds across
// server instances.
type RedisStore struct {
	client *redis.Client
}

// The counter and its expiry are set in one script; a separate INCR/PEXPIRE
// pair can leave a counter without a TTL and lock the client out forever.
var incrWithWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	redisKey := "ratelimit:" + key

	count, err := incrWithWindow.Run(ctx, s.client, []string{redisKey}, window.Milliseconds()).Int64()
	if err != nil {
		return false, 0, fmt.Errorf("redis window incr failed: %w", err)
	}

	if count > int64(limit) {
		ttl, err := s.client.PTTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}
