package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "onboarding:1", "1"))
	// 重复写入同一标记无副作用
	require.NoError(t, s.Set(ctx, "onboarding:1", "1"))

	v, ok, err := s.Get(ctx, "onboarding:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, s.Remove(ctx, "onboarding:1"))
	require.NoError(t, s.Remove(ctx, "onboarding:1"))
	_, ok, err = s.Get(ctx, "onboarding:1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewRedisStore(rdb, "edvix:")
	runStoreContract(t, s)

	require.NoError(t, s.Set(context.Background(), "k", "v"))
	assert.True(t, mr.Exists("edvix:k"))
}
