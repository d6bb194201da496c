package spotify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/musicnerd/musicnerd/internal/constants"
)

type Cache interface {
	GetCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// CachedClient stores Spotify answers, including "not found", in the cache table.
// Tokens are never cached.
type CachedClient struct {
	client API
	cache  Cache
	ttl    time.Duration
}

func NewCachedClient(client API, cache Cache, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	return &CachedClient{
		client: client,
		cache:  cache,
		ttl:    ttl,
	}
}

func (c *CachedClient) GetAccessToken(ctx context.Context) (string, error) {
	return c.client.GetAccessToken(ctx)
}

type cachedArtist struct {
	Artist   *Artist `json:"artist"`
	NotFound bool    `json:"not_found"`
}

func (c *CachedClient) GetArtist(ctx context.Context, id string) (*Artist, error) {
	cacheKey := constants.CachePrefixSpotify + "artist:" + id

	var cached cachedArtist
	if c.load(ctx, cacheKey, &cached) {
		return cached.Artist, nil
	}

	artist, err := c.client.GetArtist(ctx, id)
	if err != nil {
		return nil, err
	}

	c.store(ctx, cacheKey, cachedArtist{Artist: artist, NotFound: artist == nil})
	return artist, nil
}

type cachedCount struct {
	Count int `json:"count"`
}

func (c *CachedClient) GetReleaseCount(ctx context.Context, id string) (int, error) {
	cacheKey := constants.CachePrefixSpotify + "releases:" + id

	var cached cachedCount
	if c.load(ctx, cacheKey, &cached) {
		return cached.Count, nil
	}

	count, err := c.client.GetReleaseCount(ctx, id)
	if err != nil {
		return 0, err
	}

	c.store(ctx, cacheKey, cachedCount{Count: count})
	return count, nil
}

type cachedTrack struct {
	Track    *Track `json:"track"`
	NotFound bool   `json:"not_found"`
}

func (c *CachedClient) GetTopTrack(ctx context.Context, id string) (*Track, error) {
	cacheKey := constants.CachePrefixSpotify + "top:" + id

	var cached cachedTrack
	if c.load(ctx, cacheKey, &cached) {
		return cached.Track, nil
	}

	track, err := c.client.GetTopTrack(ctx, id)
	if err != nil {
		return nil, err
	}

	c.store(ctx, cacheKey, cachedTrack{Track: track, NotFound: track == nil})
	return track, nil
}

// load reports a hit only when the entry exists and decodes; cache errors are misses.
func (c *CachedClient) load(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.cache.GetCache(ctx, key)
	if err != nil || data == nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (c *CachedClient) store(ctx context.Context, key string, v interface{}) {
	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.SetCache(ctx, key, data, c.ttl)
	}
}
