package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.failSet != nil {
		return redis.NewStatusResult("", f.failSet)
	}
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type view struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

func TestViewCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	c := newViewCache[view](store, time.Minute, logger)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Set(ctx, "k", &view{Count: 3, Label: "today"})
	assert.Equal(t, time.Minute, store.ttls["k"])

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, view{Count: 3, Label: "today"}, *got)

	c.Delete(ctx, "k")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestViewCacheMisses(t *testing.T) {
	ctx := context.Background()

	t.Run("corrupt entry", func(t *testing.T) {
		store := newFakeStore()
		store.data["k"] = []byte("{not json")
		c := newViewCache[view](store, 0, logger)

		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("read error", func(t *testing.T) {
		store := newFakeStore()
		store.failGet = errors.New("connection refused")
		c := newViewCache[view](store, 0, logger)

		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("write error is swallowed", func(t *testing.T) {
		store := newFakeStore()
		store.failSet = errors.New("read only replica")
		c := newViewCache[view](store, 0, logger)

		c.Set(ctx, "k", &view{Count: 1})
		assert.Empty(t, store.data)
	})
}

func TestNewRedisClientRequiresAddr(t *testing.T) {
	_, err := NewRedisClient(context.Background(), config.RedisConfig{}, logger)
	assert.Error(t, err)
}
