package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStorage) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedisStorage(client, "test:")
}

func TestRedisStorage_Roundtrip(t *testing.T) {
	mr, store := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session", "value"))

	// the key is namespaced in redis
	raw, err := mr.Get("test:session")
	require.NoError(t, err)
	assert.Equal(t, "value", raw)

	value, err := store.Get(ctx, "session")
	require.NoError(t, err)
	assert.Equal(t, "value", value)
}

func TestRedisStorage_GetMissing(t *testing.T) {
	mr, store := setupTestRedis(t)
	defer mr.Close()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorage_Delete(t *testing.T) {
	mr, store := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "key", "value"))
	require.NoError(t, store.Delete(ctx, "key"))

	_, err := store.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorage_DefaultPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStorage(client, "")

	require.NoError(t, store.Set(context.Background(), "key", "value"))
	raw, err := mr.Get("medcare:key")
	require.NoError(t, err)
	assert.Equal(t, "value", raw)
}
