package insertabove

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisStorage_Contract(t *testing.T) {
	_, client := newTestRedis(t)
	runStorageContract(t, NewRedisStorage(client), true)
}

func TestRedisStorage_KeyLayout(t *testing.T) {
	mr, client := newTestRedis(t)
	storage := NewRedisStorage(client, WithRedisPrefix("site:"))
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "base.html", Source: "src"}))

	assert.Equal(t, "src", mr.HGet("site:base.html", redisFieldSource))
	assert.Equal(t, "1", mr.HGet("site:base.html", redisFieldVersion))
	members, err := mr.Members("site:" + RedisIndexKeySuffix)
	require.NoError(t, err)
	assert.Equal(t, []string{"base.html"}, members)
}

func TestRedisStorage_CloseKeepsBorrowedClient(t *testing.T) {
	_, client := newTestRedis(t)
	storage := NewRedisStorage(client)

	require.NoError(t, storage.Close())
	assert.Error(t, storage.Close())
	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestRedisStorage_Driver(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	storage, err := OpenStorage(StorageDriverNameRedis, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, storage.Save(ctx, &StoredTemplate{Name: "a.html", Source: "a"}))
	ok, err := storage.Exists(ctx, "a.html")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, storage.Close())

	_, err = OpenStorage(StorageDriverNameRedis, "not a url")
	assert.Error(t, err)
}

func TestRedisStorage_BackendFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	storage := NewRedisStorage(client)
	mr.Close()

	_, err = storage.Get(context.Background(), "a.html")
	require.Error(t, err)
	assert.False(t, IsTemplateNotFound(err))
}
