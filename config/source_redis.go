package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSource Redis 哈希数据源：哈希字段即配置 key
type RedisSource struct {
	client   redis.UniversalClient
	key      string
	priority int
	timeout  time.Duration
}

// NewRedisSource 创建 Redis 哈希数据源
func NewRedisSource(client redis.UniversalClient, key string, priority int) *RedisSource {
	return &RedisSource{
		client:   client,
		key:      key,
		priority: priority,
		timeout:  3 * time.Second,
	}
}

// WithTimeout 设置读取超时
func (s *RedisSource) WithTimeout(d time.Duration) *RedisSource {
	s.timeout = d
	return s
}

func (s *RedisSource) Name() string  { return "redis:" + s.key }
func (s *RedisSource) Priority() int { return s.priority }

// Load HGETALL 读取整张哈希
func (s *RedisSource) Load() (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, ErrSourceLoad.WithMsgf("读取 Redis 哈希 %s 失败", s.key).Wrap(err)
	}

	result := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		result[k] = v
	}
	return result, nil
}
