package config

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Unable to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// TestRedisSource test redis hash data source
func TestRedisSource(t *testing.T) {
	mr, client := newRedis(t)
	mr.HSet("app:config", "server.port", "7070", "feature.enabled", "true")

	source := NewRedisSource(client, "app:config", 30)
	assert.Equal(t, "redis:app:config", source.Name())
	assert.Equal(t, 30, source.Priority())

	data, err := source.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"server.port":     "7070",
		"feature.enabled": "true",
	}, data)

	t.Run("哈希不存在", func(t *testing.T) {
		data, err := NewRedisSource(client, "nope", 30).Load()
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("连接失败", func(t *testing.T) {
		mr.Close()
		_, err := source.Load()
		assert.ErrorIs(t, err, ErrSourceLoad)
	})
}
