package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisSnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSnapshotStore(client, ttl), mr
}

func TestRedis_LoadMissingReturnsNil(t *testing.T) {
	store, _ := newRedisStore(t, 0)

	raw, err := store.Load(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestRedis_SaveLoadDelete(t *testing.T) {
	store, _ := newRedisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", []byte(`{"stepIndex":2}`)))

	raw, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"stepIndex":2}`, string(raw))

	require.NoError(t, store.Delete(ctx, "s1"))
	raw, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestRedis_KeysAreNamespaced(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	require.NoError(t, store.Save(context.Background(), "s1", []byte(`{}`)))
	assert.True(t, mr.Exists("unmask:session:s1"))
}

func TestRedis_TTLApplied(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", []byte(`{}`)))

	mr.FastForward(2 * time.Hour)

	raw, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, raw)
}
