package receipt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedReaderHitsOnce(t *testing.T) {
	mr, client := newRedis(t)
	next := &fakeReader{doc: &Document{Items: []DocumentItem{{Name: "Coffee", Price: 10000}}}}
	cache := NewCachedReader(next, client, WithPrefix("test:"), WithTTL(time.Hour))

	ctx := context.Background()
	first, err := cache.Read(ctx, []byte("same image"), "a.jpg")
	require.NoError(t, err)
	second, err := cache.Read(ctx, []byte("same image"), "a.jpg")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.Items[0].Name, second.Items[0].Name)
	assert.Equal(t, Amount(10000), second.Items[0].Price)

	key := cache.key([]byte("same image"))
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	_, err = cache.Read(ctx, []byte("other image"), "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedReaderSkipsEmptyAndErrors(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	empty := &fakeReader{doc: &Document{Items: []DocumentItem{}}}
	cache := NewCachedReader(empty, client)
	_, err := cache.Read(ctx, []byte("blank"), "a.jpg")
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.key([]byte("blank"))))

	boom := errors.New("ocr down")
	failing := NewCachedReader(&fakeReader{err: boom}, client)
	_, err = failing.Read(ctx, []byte("img"), "a.jpg")
	assert.ErrorIs(t, err, boom)
}

func TestCachedReaderSurvivesRedisOutage(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	next := &fakeReader{doc: &Document{Items: []DocumentItem{{Name: "Tea", Price: 1}}}}
	doc, err := NewCachedReader(next, client).Read(context.Background(), []byte("img"), "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "Tea", doc.Items[0].Name)
	assert.Equal(t, 1, next.calls)
}
