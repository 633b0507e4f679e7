package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultDraftTTL is how long an extraction result stays cached.
const DefaultDraftTTL = 15 * time.Minute

const draftKeyPrefix = "jobscrape:draft:"

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// DraftCache keeps recent extraction results keyed by canonical URL so
// repeated requests for the same posting skip the fetch. A nil DraftCache
// or one without a client is a no-op.
type DraftCache struct {
	Client redis.Cmdable
	TTL    time.Duration
}

// Get decodes the cached value for rawURL into v. It reports false on a miss.
func (c *DraftCache) Get(ctx context.Context, rawURL string, v any) (bool, error) {
	if c == nil || c.Client == nil {
		return false, nil
	}
	b, err := c.Client.Get(ctx, DraftKey(rawURL)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("draft cache get: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("draft cache decode: %w", err)
	}
	return true, nil
}

// Set stores v for rawURL with the configured TTL.
func (c *DraftCache) Set(ctx context.Context, rawURL string, v any) error {
	if c == nil || c.Client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("draft cache encode: %w", err)
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	if err := c.Client.Set(ctx, DraftKey(rawURL), b, ttl).Err(); err != nil {
		return fmt.Errorf("draft cache set: %w", err)
	}
	return nil
}

// DraftKey returns the cache key for rawURL: fragment and default port
// dropped, host lower-cased. Unparseable input is used as-is.
func DraftKey(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return draftKeyPrefix + raw
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) || (u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Hostname()
	}
	return draftKeyPrefix + u.String()
}
