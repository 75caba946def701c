package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPageCacheTTL is how long an extracted posting is reused
const DefaultPageCacheTTL = 24 * time.Hour

// CachedPage is what is kept per URL: the posting text and any structured headline
type CachedPage struct {
	Text    string      `json:"text"`
	Posting *JobPosting `json:"posting,omitempty"`
}

// PageCache stores extracted postings by URL
type PageCache interface {
	Get(ctx context.Context, url string) (*CachedPage, bool, error)
	Set(ctx context.Context, url string, page *CachedPage) error
}

// RedisPageCache is a PageCache in Redis, one JSON value per hashed URL
type RedisPageCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisPageCache(client redis.UniversalClient, ttl time.Duration) *RedisPageCache {
	if ttl <= 0 {
		ttl = DefaultPageCacheTTL
	}
	return &RedisPageCache{client: client, prefix: "page:", ttl: ttl}
}

func (c *RedisPageCache) key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Get returns the cached page for url. An entry that no longer decodes counts as a miss.
func (c *RedisPageCache) Get(ctx context.Context, url string) (*CachedPage, bool, error) {
	data, err := c.client.Get(ctx, c.key(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var page CachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false, nil
	}
	return &page, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, url string, page *CachedPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(url), data, c.ttl).Err()
}
