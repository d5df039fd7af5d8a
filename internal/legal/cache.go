package legal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// defaultCacheTTL matches CacheManager's default ttl=3600 in cache.py.
const defaultCacheTTL = time.Hour

// Cache fronts the legal agent's verdicts with Redis, keyed on
// sha256(task, channel, content) exactly as CacheManager._generate_key
// does, so repeated submissions of identical content skip the retrieve
// and generate steps entirely. A nil client disables caching; failures
// degrade silently (cache.py's own behavior on any redis error).
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewCache(client *redis.Client, log zerolog.Logger) *Cache {
	return &Cache{client: client, ttl: defaultCacheTTL, log: log.With().Str("component", "legal.cache").Logger()}
}

func cacheKey(task, channel, content string) string {
	sum := sha256.Sum256([]byte(task + "\x00" + channel + "\x00" + content))
	return "legal_agent:" + hex.EncodeToString(sum[:])
}

func (c *Cache) Get(ctx context.Context, task, channel, content string) (*Verdict, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(task, channel, content)).Bytes()
	if err != nil {
		return nil, false
	}
	var v Verdict
	if json.Unmarshal(raw, &v) != nil {
		return nil, false
	}
	return &v, true
}

func (c *Cache) Set(ctx context.Context, task, channel, content string, v *Verdict) {
	if c.client == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(task, channel, content), payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("legal verdict cache write failed")
	}
}
