package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-challenge-backend/internal/session"
)

var _ session.KV = (*RedisKV)(nil)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestConnectRedis_Errors(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "")
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), "://bad")
	require.ErrorContains(t, err, "parse")

	server, err := miniredis.Run()
	require.NoError(t, err)
	addr := server.Addr()
	server.Close()
	_, err = ConnectRedis(context.Background(), "redis://"+addr)
	require.ErrorContains(t, err, "unable to connect")
}

func TestRedisKV_RoundTrip(t *testing.T) {
	server, client := newRedis(t)
	kv := NewRedisKV(client, "challenges:", 0)
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "user")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, kv.Set(ctx, "user", "user1"))
	v, ok, err := kv.Get(ctx, "user")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "user1", v)

	raw, err := server.Get("challenges:user")
	require.NoError(t, err)
	require.Equal(t, "user1", raw, "keys carry the prefix")

	require.NoError(t, kv.Delete(ctx, "user"))
	require.NoError(t, kv.Delete(ctx, "user"))
	_, ok, _ = kv.Get(ctx, "user")
	require.False(t, ok)
}

func TestRedisKV_TTL(t *testing.T) {
	server, client := newRedis(t)
	kv := NewRedisKV(client, "", time.Minute)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "challenge_favorites:user1", `["1"]`))
	require.Equal(t, time.Minute, server.TTL("challenge_favorites:user1"))

	server.FastForward(2 * time.Minute)
	_, ok, err := kv.Get(ctx, "challenge_favorites:user1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisKV_BacksSession(t *testing.T) {
	_, client := newRedis(t)
	kv := NewRedisKV(client, "s:", 0)
	ctx := context.Background()

	// a second process sees the same session key
	other := NewRedisKV(client, "s:", 0)
	require.NoError(t, kv.Set(ctx, session.UserKey, "user3"))
	v, ok, err := other.Get(ctx, session.UserKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "user3", v)
}
