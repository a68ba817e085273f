package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s := NewRedisStore(client, "sensai:")
	ctx := context.Background()

	_, err = s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, s.Set(ctx, "token", "abc", time.Minute))
	got, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
	assert.True(t, mr.Exists("sensai:token"))

	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, s.Set(ctx, "token", "def", 0))
	require.NoError(t, s.Delete(ctx, "token"))
	_, err = s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	addr := mr.Addr()
	c, err := NewRedisClient(context.Background(), RedisOptions{Addr: addr})
	require.NoError(t, err)
	_ = c.Close()

	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisOptions{Addr: addr})
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryStore()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Second))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	now = now.Add(time.Second)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "forever", "x", 0))
	now = now.Add(24 * time.Hour)
	got, err = m.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	require.NoError(t, m.Delete(ctx, "forever"))
	_, err = m.Get(ctx, "forever")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
