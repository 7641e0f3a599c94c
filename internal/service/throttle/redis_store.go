package throttle

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const redisKeyPrefix = "throttle:"

// RedisStore 基于 Redis 的共享计数存储
// 多实例部署时替换进程内存储，计数跨进程一致
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Incr 原子自增，首次计数时设置窗口过期
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	redisKey := redisKeyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return count, window, err
		}
		return count, window, nil
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl < 0 {
		// TTL 丢失时兜底重设，避免 key 永不过期
		s.client.Expire(ctx, redisKey, window)
		ttl = window
	}
	return count, ttl, nil
}
