//go:build integration

package fetch

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPageCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	cache := NewRedisPageCache(client, time.Minute)
	url := "https://jobs.example.com/" + time.Now().Format(time.RFC3339Nano)

	_, ok, err := cache.Get(ctx, url)
	require.NoError(t, err)
	assert.False(t, ok)

	want := &CachedPage{Text: "posting text", Posting: &JobPosting{Title: "SRE", Company: "Acme"}}
	require.NoError(t, cache.Set(ctx, url, want))
	got, ok, err := cache.Get(ctx, url)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, client.Set(ctx, cache.key(url), "not json", time.Minute).Err())
	_, ok, err = cache.Get(ctx, url)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.TTL(ctx, cache.key(url)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
