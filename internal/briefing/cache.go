package briefing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// cachedDecision is one enhancement kept in the decision cache.
type cachedDecision struct {
	EnhancedText  string
	Explanation   string
	InteractionID string
}

// defaultCacheTTL matches EnhancementCacheManager's ttl=86400 (24h) in
// cache.py.
const defaultCacheTTL = 24 * time.Hour

// cachePrefix mirrors EnhancementCacheManager.PREFIX.
const cachePrefix = "briefing_cache"

// Cache fronts the enhancer's decision cache with Redis, keyed on
// (user_id, field_name, text_hash, scope) per spec §4.4 and cache.py's
// `{PREFIX}:{user_id}:{field_name}:{hash}:{scope}` key shape. A nil
// client disables caching; failures degrade silently, matching
// EnhancementCacheManager's own try/except-and-log-only behavior.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewCache(client *redis.Client, log zerolog.Logger) *Cache {
	return &Cache{client: client, ttl: defaultCacheTTL, log: log.With().Str("component", "briefing.cache").Logger()}
}

func key(userID, fieldName, text, scope string) string {
	sum := sha256.Sum256([]byte(text))
	return cachePrefix + ":" + userID + ":" + fieldName + ":" + hex.EncodeToString(sum[:]) + ":" + scope
}

func (c *Cache) Get(ctx context.Context, userID, fieldName, text, scope string) (cachedDecision, bool) {
	if c.client == nil {
		return cachedDecision{}, false
	}
	raw, err := c.client.Get(ctx, key(userID, fieldName, text, scope)).Bytes()
	if err != nil {
		return cachedDecision{}, false
	}
	var d cachedDecision
	if json.Unmarshal(raw, &d) != nil {
		return cachedDecision{}, false
	}
	return d, true
}

func (c *Cache) Set(ctx context.Context, userID, fieldName, text, scope string, d cachedDecision) {
	if c.client == nil {
		return
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return
	}
	k := key(userID, fieldName, text, scope)
	if err := c.client.Set(ctx, k, payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("enhancement cache write failed")
		return
	}
	if err := c.client.Set(ctx, interactionIndexKey(d.InteractionID), k, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("enhancement cache index write failed")
	}
}

// interactionIndexKey lets Invalidate find the entry key for a rejected
// interaction without a reverse scan; cache.py has no equivalent of
// Invalidate (rejections aren't threaded back into the cache there), but
// spec §4.4 requires the demotion, so this index is this repo's own
// addition on top of the ported key shape.
func interactionIndexKey(interactionID string) string {
	return cachePrefix + ":by_interaction:" + interactionID
}

// Invalidate removes the cached entry tied to a rejected interaction, so
// the next identical request re-invokes the LLM instead of replaying a
// rejected rewrite.
func (c *Cache) Invalidate(ctx context.Context, interactionID string) {
	if c.client == nil {
		return
	}
	k, err := c.client.Get(ctx, interactionIndexKey(interactionID)).Result()
	if err != nil {
		return
	}
	if err := c.client.Del(ctx, k, interactionIndexKey(interactionID)).Err(); err != nil {
		c.log.Warn().Err(err).Msg("enhancement cache invalidate failed")
	}
}
